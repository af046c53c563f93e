// Package quotawindow реализует расчёт канонических границ окна квоты.
//
// Окно квоты — это повторяющийся период (день, ISO-неделя, календарный месяц),
// в течение которого накапливается счётчик использования фичи. Начало окна
// канонично: полночь UTC для дня, понедельник 00:00 UTC для недели, первое
// число 00:00 UTC для месяца. Сброс квоты не требует отдельной операции —
// новое окно означает новую строку счётчика.
package quotawindow

import "time"

// Period определяет длину окна квоты.
type Period string

const (
	// PeriodDay — окно с началом в полночь UTC.
	PeriodDay Period = "day"
	// PeriodWeek — окно с началом в понедельник 00:00 UTC (ISO-неделя).
	PeriodWeek Period = "week"
	// PeriodMonth — окно с началом первого числа месяца 00:00 UTC.
	PeriodMonth Period = "month"
)

// Start возвращает каноническое начало окна, содержащего момент now.
// Неизвестный период трактуется как день: это самое короткое окно,
// ошибка конфигурации не должна расширять лимит.
func Start(now time.Time, p Period) time.Time {
	now = now.UTC()
	switch p {
	case PeriodWeek:
		day := now.Truncate(24 * time.Hour)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // воскресенье в ISO-неделе — седьмой день
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return now.Truncate(24 * time.Hour)
	}
}

// Next возвращает начало следующего окна после start.
func Next(start time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		return start.AddDate(0, 0, 7)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Bounds возвращает начало текущего окна и момент его сброса.
func Bounds(now time.Time, p Period) (start, resetAt time.Time) {
	start = Start(now, p)
	return start, Next(start, p)
}
