package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nsf/jsondiff"
)

type testClient struct {
	cookies []*http.Cookie
}

func newTestClient() *testClient {
	return &testClient{}
}

func (c *testClient) doRequest(
	method, path string, form any, status int, resp any,
) error {
	var body *bytes.Reader
	if form != nil {
		data, err := json.Marshal(form)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	// Force stores to sync so that tests see each other's writes.
	req.Header.Add("X-Hackdesk-Sync", "true")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	if err := testHandler(req, rec); err != nil {
		return err
	}
	if rec.Code != status {
		var errResp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("status %d", rec.Code)
		}
		errResp.Code = rec.Code
		return &errResp
	}
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	if resp != nil {
		return json.NewDecoder(rec.Body).Decode(resp)
	}
	return nil
}

func (c *testClient) Register(form registerUserForm) (User, error) {
	var resp User
	err := c.doRequest(
		http.MethodPost, "/api/v0/register", form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) Login(login, password string) (Session, error) {
	var resp Session
	err := c.doRequest(
		http.MethodPost, "/api/v0/login", map[string]string{
			"login":    login,
			"password": password,
		}, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) Logout() error {
	return c.doRequest(
		http.MethodPost, "/api/v0/logout", nil, http.StatusOK, nil,
	)
}

func (c *testClient) Status() (Status, error) {
	var resp Status
	err := c.doRequest(
		http.MethodGet, "/api/v0/status", nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveUser(login string) (User, error) {
	var resp User
	err := c.doRequest(
		http.MethodGet, fmt.Sprintf("/api/v0/users/%s", login),
		nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) CreateHackathon(form createHackathonForm) (Hackathon, error) {
	var resp Hackathon
	err := c.doRequest(
		http.MethodPost, "/api/v0/hackathons", form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) UpdateHackathon(
	id int64, form updateHackathonForm,
) (Hackathon, error) {
	var resp Hackathon
	err := c.doRequest(
		http.MethodPatch, fmt.Sprintf("/api/v0/hackathons/%d", id),
		form, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveHackathons() (Hackathons, error) {
	var resp Hackathons
	err := c.doRequest(
		http.MethodGet, "/api/v0/hackathons", nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveHackathon(id int64) (Hackathon, error) {
	var resp Hackathon
	err := c.doRequest(
		http.MethodGet, fmt.Sprintf("/api/v0/hackathons/%d", id),
		nil, http.StatusOK, &resp,
	)
	return resp, err
}

func (c *testClient) CreateRubric(
	hackathonID int64, form createRubricForm,
) (Rubric, error) {
	var resp Rubric
	err := c.doRequest(
		http.MethodPost, fmt.Sprintf("/api/v0/hackathons/%d/rubrics", hackathonID),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) CreateJudge(
	hackathonID int64, form createJudgeForm,
) (Judge, error) {
	var resp Judge
	err := c.doRequest(
		http.MethodPost, fmt.Sprintf("/api/v0/hackathons/%d/judges", hackathonID),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) CreateTeam(
	hackathonID int64, form createTeamForm,
) (Team, error) {
	var resp Team
	err := c.doRequest(
		http.MethodPost, fmt.Sprintf("/api/v0/hackathons/%d/teams", hackathonID),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) JoinTeam(
	hackathonID int64, form joinTeamForm,
) (TeamMember, error) {
	var resp TeamMember
	err := c.doRequest(
		http.MethodPost, fmt.Sprintf("/api/v0/hackathons/%d/teams/join", hackathonID),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) SubmitScore(
	hackathonID, teamID int64, form submitScoreForm,
) (Score, error) {
	var resp Score
	err := c.doRequest(
		http.MethodPost,
		fmt.Sprintf("/api/v0/hackathons/%d/teams/%d/scores", hackathonID, teamID),
		form, http.StatusCreated, &resp,
	)
	return resp, err
}

func (c *testClient) ObserveLeaderboard(hackathonID int64) (Leaderboard, error) {
	var resp Leaderboard
	err := c.doRequest(
		http.MethodGet, fmt.Sprintf("/api/v0/hackathons/%d/leaderboard", hackathonID),
		nil, http.StatusOK, &resp,
	)
	return resp, err
}

func checkJSON(tb testing.TB, data any, expected string) {
	raw, err := json.Marshal(data)
	if err != nil {
		tb.Fatal("Error:", err)
	}
	options := jsondiff.DefaultConsoleOptions()
	diff, report := jsondiff.Compare(raw, []byte(expected), &options)
	if diff != jsondiff.FullMatch {
		tb.Fatalf("Unexpected JSON: %s", report)
	}
}
