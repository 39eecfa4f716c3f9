package incidents

import "time"

const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// Incident is a general incident report, independent from the atestado
// paperwork it may later feed.
type Incident struct {
	Code            int64     `json:"code"`
	CreationDate    time.Time `json:"creation_date"`
	Status          string    `json:"status"`
	Location        string    `json:"location"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	BrigadeField    bool      `json:"brigade_field"`
	CreatorUserCode string    `json:"creator_user_code"`
	ClosureUserCode *string   `json:"closure_user_code,omitempty"`
}

// Person as attached to an incident. DNI is the national id and primary key.
type Person struct {
	DNI         string `json:"dni"`
	FirstName   string `json:"first_name"`
	LastName1   string `json:"last_name1"`
	LastName2   string `json:"last_name2"`
	PhoneNumber string `json:"phone_number"`
}

type Vehicle struct {
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Color        string `json:"color"`
}

type Image struct {
	ID           int64  `json:"id"`
	IncidentCode int64  `json:"incident_code"`
	URL          string `json:"url"`
}
