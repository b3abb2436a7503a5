package model

// Priority bounds for an applicant's declared preference (1 is most preferred)
const (
	MinPriority = 1
	MaxPriority = 4
)

// Program represents an educational program with a fixed number of budget seats
type Program struct {
	Code  string
	Name  string
	Seats int
}

// ApplicationRecord represents one applicant's standing application to one program on one list date
type ApplicationRecord struct {
	ApplicantID  int64
	ProgramCode  string
	Priority     int
	TotalScore   int
	ConsentGiven bool

	// Component scores, carried for listings and storage only
	PhysicsScore     int
	RussianScore     int
	MathScore        int
	AchievementScore int
}

// HasValidPriority reports whether the priority lies within MinPriority..MaxPriority
func (r ApplicationRecord) HasValidPriority() bool {
	return r.Priority >= MinPriority && r.Priority <= MaxPriority
}

// ProgramCodes returns the codes of the given programs in input order
func ProgramCodes(programs []Program) []string {
	codes := make([]string, len(programs))
	for i, p := range programs {
		codes[i] = p.Code
	}
	return codes
}
