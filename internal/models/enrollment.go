package models

// Статусы записи в программу.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusCancelled = "cancelled"
)

// Enrollment представляет запись пользователя в коучинговую программу
// (например, Kickstart или Transformatie). Пользователь может держать
// несколько записей одновременно; эффективный тариф определяется
// самой приоритетной активной записью, а не их суммой.
type Enrollment struct {
	ID          int    // Идентификатор строки
	UserUID     string // UID пользователя
	ProgramSlug string // Слаг программы
	Status      string // active | completed | cancelled
}
