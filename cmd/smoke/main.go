package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type client struct {
	base string
	http *http.Client
}

func (c *client) call(method, path, token string, body any) (int, envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		return resp.StatusCode, envelope{}, fmt.Errorf("bad response body: %w", err)
	}
	return resp.StatusCode, env, nil
}

type account struct {
	ID    uuid.UUID
	Token string
}

func (c *client) signupAndSignin(name string) (account, error) {
	email := name + "@example.com"
	password := "Secret123!"

	status, env, err := c.call("POST", "/api/auth/signup", "", map[string]string{
		"username": name, "email": email, "password": password,
	})
	if err != nil {
		return account{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return account{}, fmt.Errorf("signup returned %d: %s", status, env.Error)
	}

	status, env, err = c.call("POST", "/api/auth/signin", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return account{}, err
	}
	if status != http.StatusOK {
		return account{}, fmt.Errorf("signin returned %d: %s", status, env.Error)
	}

	var login struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		return account{}, err
	}
	if login.AccessToken == "" {
		return account{}, fmt.Errorf("signin returned no token")
	}
	return account{ID: login.User.ID, Token: login.AccessToken}, nil
}

func main() {
	base := flag.String("base", "http://localhost:8080", "Base URL of a running server")
	flag.Parse()

	c := &client{base: *base, http: &http.Client{Timeout: 10 * time.Second}}
	failed := false
	check := func(ok bool, format string, args ...any) {
		if ok {
			fmt.Printf("[X] "+format+"\n", args...)
			return
		}
		failed = true
		fmt.Printf("ERROR: "+format+"\n", args...)
	}
	suffix := uuid.NewString()[:8]

	fmt.Println("\ntest 1: status")
	status, _, err := c.call("GET", "/api/status", "", nil)
	check(err == nil && status == http.StatusOK, "GET /api/status -> %d %v", status, err)

	fmt.Println("\ntest 2: signup and signin")
	alice, err := c.signupAndSignin("alice_" + suffix)
	check(err == nil, "alice signed in %v", err)
	if err != nil {
		os.Exit(1)
	}

	fmt.Println("\ntest 3: create a task")
	status, env, err := c.call("POST", "/api/tasks", alice.Token, map[string]any{
		"title": "Buy milk", "user_id": uuid.New(),
	})
	check(err == nil && status == http.StatusCreated, "POST /api/tasks -> %d %v", status, err)
	var task struct {
		ID     uuid.UUID `json:"id"`
		UserID uuid.UUID `json:"user_id"`
	}
	json.Unmarshal(env.Data, &task)
	check(task.UserID == alice.ID, "task owner is alice (%s)", task.UserID)

	fmt.Println("\ntest 4: another user cannot see it")
	bob, err := c.signupAndSignin("bob_" + suffix)
	check(err == nil, "bob signed in %v", err)
	if err == nil {
		status, _, err = c.call("GET", "/api/tasks/"+task.ID.String(), bob.Token, nil)
		check(err == nil && (status == http.StatusNotFound || status == http.StatusForbidden), "bob GET task -> %d %v", status, err)
	}

	status, _, err = c.call("GET", "/api/tasks/"+task.ID.String(), alice.Token, nil)
	check(err == nil && status == http.StatusOK, "alice GET task -> %d %v", status, err)

	fmt.Println("\ntest 5: gate")
	status, _, _ = c.call("GET", "/api/tasks", "", nil)
	check(status == http.StatusForbidden, "no token -> %d", status)
	status, _, _ = c.call("GET", "/api/tasks", "garbage", nil)
	check(status == http.StatusUnauthorized, "bad token -> %d", status)

	if failed {
		fmt.Println("\nsmoke test FAILED")
		os.Exit(1)
	}
	fmt.Println("\nsmoke test passed")
}
