package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// SISClient talks to the external student-information system. The bearer
// token is cached and renewed when expired.
type SISClient struct {
	BaseURL  string
	Username string
	Password string
	HTTP     *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewSISClient(baseURL, username, password string) *SISClient {
	return &SISClient{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// SISStudent is the external system's student record.
type SISStudent struct {
	RA         string `json:"ra"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	BirthDate  string `json:"birth_date"`
	Situation  string `json:"situation"`
	ClassCode  string `json:"class_code"`
	SchoolYear int    `json:"school_year"`
}

// SISFilters restricts which students the external system returns.
type SISFilters struct {
	BranchID   int
	SchoolYear int
	Situation  string
}

func (c *SISClient) authenticate() error {
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, c.Username, c.Password)
	resp, err := c.HTTP.Post(c.BaseURL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "authenticate against student system")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("student system authentication failed: status %d", resp.StatusCode)
	}

	var out struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, "decode authentication response")
	}
	if out.ExpiresIn == 0 {
		out.ExpiresIn = 3600
	}
	c.token = out.Token
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return nil
}

func (c *SISClient) ensureAuthenticated() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return nil
	}
	return c.authenticate()
}

// FetchStudents retrieves students from the external system.
func (c *SISClient) FetchStudents(filters SISFilters) ([]SISStudent, error) {
	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if filters.BranchID != 0 {
		params.Set("branch", strconv.Itoa(filters.BranchID))
	}
	if filters.SchoolYear != 0 {
		params.Set("school_year", strconv.Itoa(filters.SchoolYear))
	}
	if filters.Situation != "" {
		params.Set("situation", filters.Situation)
	}

	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"/students?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build student request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch students from student system")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("student system returned status %d", resp.StatusCode)
	}

	var out struct {
		Data []SISStudent `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode student list")
	}
	return out.Data, nil
}
