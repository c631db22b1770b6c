package entities

// Patient is a person who submits medical queries
type Patient struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Condition        string  `json:"condition"`
	Email            string  `json:"email"`
	AssignedDoctorID *string `json:"assigned_doctor_id,omitempty"`
	IsActive         bool    `json:"is_active"`
}

// IsAssigned reports whether the patient currently has a doctor
func (p *Patient) IsAssigned() bool {
	return p.AssignedDoctorID != nil
}

// Clone returns a deep copy so callers never share state with a registry
func (p *Patient) Clone() *Patient {
	if p == nil {
		return nil
	}
	c := *p
	c.AssignedDoctorID = cloneString(p.AssignedDoctorID)
	return &c
}

// PatientEntry is the snapshot form of a patient record
type PatientEntry struct {
	ID     string  `json:"id"`
	Record Patient `json:"record"`
}
