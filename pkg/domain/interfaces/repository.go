package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Event() EventRepository
	Process() ProcessRepository
	Post() PostRepository

	Close() error
}
