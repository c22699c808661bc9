package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Timetable API",
        "description": "Timetable generation and lesson scheduling service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Generation and projected weekly views"},
        {"name": "Lessons", "description": "Manual lesson management"},
        {"name": "Substitutions", "description": "Substitute teacher checks"}
    ],
    "paths": {
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the timetable for a term",
                "description": "Fills unmet weekly requirements. Re-running over a partial timetable only adds missing lessons.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term not found"}
                }
            }
        },
        "/timetable/classes/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a class section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/classes/{id}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export a class timetable as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/timetable/teachers/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/rooms/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List lessons",
                "parameters": [
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "classSectionId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lessons"],
                "summary": "Create a lesson manually",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict"},
                    "422": {"description": "Constraint violation"}
                }
            },
            "delete": {
                "tags": ["Lessons"],
                "summary": "Delete all lessons of a term",
                "parameters": [
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/bulk": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Create many lessons with per-item isolation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkCreateLessonsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/{id}": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Get a lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Lessons"],
                "summary": "Move a scheduled lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLessonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict or invalid status"},
                    "422": {"description": "Constraint violation"}
                }
            }
        },
        "/lessons/{id}/cancel": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Cancel a scheduled lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid status transition"}
                }
            }
        },
        "/substitutions/validate": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Check whether a substitute teacher can take a lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateSubstitutionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Lesson not found"}
                }
            }
        }
    },
    "definitions": {
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "term_id": {"type": "string"},
                "period_set_id": {"type": "string"},
                "options": {"$ref": "#/definitions/GenerateTimetableOptions"}
            },
            "required": ["school_id", "term_id", "period_set_id"]
        },
        "GenerateTimetableOptions": {
            "type": "object",
            "properties": {
                "respect_teacher_availability": {"type": "boolean"},
                "respect_room_suitability": {"type": "boolean"},
                "max_consecutive_lessons_per_teacher": {"type": "integer"}
            }
        },
        "GenerationReport": {
            "type": "object",
            "properties": {
                "total_lessons_created": {"type": "integer"},
                "total_requirements_fulfilled": {"type": "integer"},
                "total_requirements": {"type": "integer"},
                "unfulfilled": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/UnfulfilledRequirement"}
                }
            }
        },
        "UnfulfilledRequirement": {
            "type": "object",
            "properties": {
                "class_section_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "required_lessons": {"type": "integer"},
                "scheduled_lessons": {"type": "integer"},
                "reason": {"type": "string"}
            }
        },
        "CreateLessonRequest": {
            "type": "object",
            "properties": {
                "school_id": {"type": "string"},
                "academic_year": {"type": "string"},
                "term_id": {"type": "string"},
                "class_section_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "room_id": {"type": "string"},
                "time_slot_id": {"type": "string"}
            },
            "required": ["school_id", "academic_year", "term_id", "class_section_id", "subject_id", "teacher_id", "room_id", "time_slot_id"]
        },
        "UpdateLessonRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "room_id": {"type": "string"},
                "time_slot_id": {"type": "string"}
            },
            "required": ["subject_id", "teacher_id", "room_id", "time_slot_id"]
        },
        "BulkCreateLessonsRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CreateLessonRequest"}
                }
            },
            "required": ["items"]
        },
        "ValidateSubstitutionRequest": {
            "type": "object",
            "properties": {
                "lesson_id": {"type": "string"},
                "substitute_teacher_id": {"type": "string"}
            },
            "required": ["lesson_id", "substitute_teacher_id"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
