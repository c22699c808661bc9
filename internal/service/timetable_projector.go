package service

import "github.com/noah-isme/school-timetable-api/internal/models"

// projectTimetable folds active lessons into a day-by-period grid. The first
// lesson on a day initialises that day's inner map; days that stay untouched
// keep a nil map, which is the "no lessons" marker callers and JSON output
// rely on. includeClass adds the class name to each cell for teacher and
// room views.
func projectTimetable(termID, scope string, lessons []models.LessonDetail, includeClass bool) models.TimetableGrid {
	grid := models.TimetableGrid{TermID: termID, Scope: scope}
	for _, lesson := range lessons {
		if !lesson.Active() {
			continue
		}
		day := lesson.DayOfWeek
		if day < 0 || day > 6 {
			continue
		}
		if grid.Days[day] == nil {
			grid.Days[day] = make(map[string]models.TimetableCell)
		}
		cell := models.TimetableCell{
			LessonID: lesson.ID,
			Subject:  lesson.SubjectName,
			Teacher:  lesson.TeacherShortName,
			Room:     lesson.RoomName,
		}
		if includeClass {
			cell.ClassSection = lesson.ClassSectionName
		}
		grid.Days[day][lesson.PeriodID] = cell
	}
	return grid
}
