package entities

// Doctor reviews and answers medical queries
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// DoctorEntry is the snapshot form of a doctor record
type DoctorEntry struct {
	ID     string `json:"id"`
	Record Doctor `json:"record"`
}
