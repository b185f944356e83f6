package ward

// Kind identifies one of the four record collections exposed by the ward API.
type Kind string

const (
	KindPatient    Kind = "patient"
	KindAdmission  Kind = "admission"
	KindEmployee   Kind = "employee"
	KindAllocation Kind = "allocation"
)

// Kinds lists every record kind in refresh order.
var Kinds = []Kind{KindPatient, KindAdmission, KindEmployee, KindAllocation}

// Patient is a person registered with the ward
type Patient struct {
	ID        int    `json:"id"`
	Surname   string `json:"surname"`
	Forename  string `json:"forename"`
	NHSNumber string `json:"nhsNumber"`
}

// Admission is one hospital stay of a patient.
// An empty DischargeDate means the patient is still admitted.
type Admission struct {
	ID            int    `json:"id"`
	PatientID     int    `json:"patientID"`
	AdmissionDate string `json:"admissionDate"`
	DischargeDate string `json:"dischargeDate"`
}

// Discharged reports whether the admission has a discharge date
func (a Admission) Discharged() bool {
	return a.DischargeDate != ""
}

// Employee is a member of ward staff
type Employee struct {
	ID       int    `json:"id"`
	Surname  string `json:"surname"`
	Forename string `json:"forename"`
}

// Allocation assigns an employee to an admission for a period of time.
// An empty EndTime means the allocation is ongoing.
type Allocation struct {
	ID          int    `json:"id"`
	AdmissionID int    `json:"admissionID"`
	EmployeeID  int    `json:"employeeID"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// Ongoing reports whether the allocation has no end time yet
func (a Allocation) Ongoing() bool {
	return a.EndTime == ""
}
