package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type authRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// LookupRequest is the body of the by-url endpoints. The token is added on
// the wire only and never recorded in a Result payload.
type LookupRequest struct {
	URL string `json:"url"`
}

type lookupRequestWithToken struct {
	URL         string `json:"url"`
	AccessToken string `json:"access_token"`
}

type AddURLResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Accepted means the provider queued the lookup; the result is not ready yet.
func (r *AddURLResponse) Accepted() bool {
	return r != nil && r.Success
}

type ProspectByURLResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Data    *ProspectProfile `json:"data,omitempty"`
}

func (r *ProspectByURLResponse) Found() bool {
	return r != nil && r.Success && r.Data != nil
}

type ProspectProfile struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	SourcePage  string         `json:"sourcePage"`
	Source      string         `json:"source"`
	Industry    string         `json:"industry"`
	Country     string         `json:"country"`
	Locality    string         `json:"locality"`
	Skills      []string       `json:"skills"`
	Links       interface{}    `json:"links,omitempty"`
	CurrentJob  []Job          `json:"currentJob"`
	PreviousJob []Job          `json:"previousJob"`
	Social      []string       `json:"social"`
	Emails      []ProfileEmail `json:"emails"`
}

type Job struct {
	CompanyName string  `json:"companyName"`
	Position    string  `json:"position"`
	SocialLink  *string `json:"socialLink"`
	Site        *string `json:"site"`
	Locality    *string `json:"locality"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	Street      *string `json:"street"`
	Street2     *string `json:"street2"`
	Postal      *string `json:"postal"`
	Founded     *string `json:"founded"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Size        *string `json:"size"`
	Industry    *string `json:"industry"`
	CompanyType *string `json:"companyType"`
	Country     *string `json:"country"`
}

type ProfileEmail struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

type DomainSearchParams struct {
	Domain string
	Type   string
	Limit  int
	LastID int
}

type DomainSearchResponse struct {
	Success     bool          `json:"success"`
	Domain      string        `json:"domain"`
	Webmail     bool          `json:"webmail"`
	Result      int           `json:"result"`
	LastID      int           `json:"lastId"`
	Limit       int           `json:"limit"`
	CompanyName string        `json:"companyName"`
	Emails      []DomainEmail `json:"emails"`
}

type DomainEmail struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Position    string `json:"position,omitempty"`
	SourcePage  string `json:"sourcePage,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Type        string `json:"type,omitempty"`
	Status      string `json:"status,omitempty"`
}

type DateObject struct {
	Date         string `json:"date"`
	TimezoneType int    `json:"timezone_type"`
	Timezone     string `json:"timezone"`
}

type UserList struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	Contacts     int         `json:"contacts"`
	IsDeleted    bool        `json:"isDeleted"`
	CreationDate DateObject  `json:"creationDate"`
	DeletionDate *DateObject `json:"deletionDate"`
}

type ProspectListParams struct {
	ListID  int `json:"listId"`
	Page    int `json:"page,omitempty"`
	PerPage int `json:"perPage,omitempty"`
}

type prospectListRequest struct {
	ProspectListParams
	AccessToken string `json:"access_token"`
}

type ProspectListResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	List      *ProspectListInfo `json:"list,omitempty"`
	Prospects []Prospect        `json:"prospects"`
}

type ProspectListInfo struct {
	Name         string     `json:"name"`
	Contacts     int        `json:"contacts"`
	CreationDate DateObject `json:"creationDate"`
}

type Prospect struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Emails    []ProspectEmail `json:"emails"`
}

type ProspectEmail struct {
	Email           string  `json:"email"`
	Probability     string  `json:"probability"`
	IsVerified      *int    `json:"isVerified"`
	JobStatus       string  `json:"jobStatus"`
	DomainType      string  `json:"domainType"`
	IsValidFormat   *string `json:"isValidFormat"`
	IsDisposable    *string `json:"isDisposable"`
	IsWebmail       *string `json:"isWebmail"`
	IsGibberish     *string `json:"isGibberish"`
	SMTPStatus      *string `json:"smtpStatus"`
	EmailVerifyText *string `json:"emailVerifyText"`
}

// ProbabilityValue parses Probability; unparsable values rank lowest.
func (e ProspectEmail) ProbabilityValue() float64 {
	p, err := strconv.ParseFloat(e.Probability, 64)
	if err != nil {
		return -1
	}
	return p
}

func (e ProspectEmail) Verified() bool {
	return e.IsVerified != nil && *e.IsVerified == 1
}

// AsRecord turns a provider payload into the generic map the mapping
// expressions are evaluated against.
func AsRecord(v interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	record := make(map[string]interface{})
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}
