// Demo client that walks the broker through a full session lifecycle:
// signup (falling back to login if the username exists), introspect,
// logout, then introspect again.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type client struct {
	baseURL   string
	appID     string
	appSecret string
	http      *http.Client
}

func (c *client) post(path string, body map[string]string) (int, map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Id", c.appID)
	req.Header.Set("X-App-Secret", c.appSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, payload, nil
}

func pretty(title string, status int, payload map[string]any) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println(title)
	fmt.Println("STATUS:", status)
	out, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println(string(out))
}

func main() {
	c := &client{
		baseURL:   envOr("AUTH_URL", "http://127.0.0.1:8080"),
		appID:     envOr("APP_ID", "workouts-app"),
		appSecret: envOr("APP_SECRET", "abc123"),
		http:      &http.Client{Timeout: 5 * time.Second},
	}

	creds := map[string]string{"username": "demo_user", "password": "password123"}

	status, payload, err := c.post("/signup", creds)
	if err != nil {
		fmt.Fprintln(os.Stderr, "signup:", err)
		os.Exit(1)
	}
	pretty("SIGNUP", status, payload)

	switch status {
	case http.StatusConflict:
		// user already exists, login instead
		status, payload, err = c.post("/login", creds)
		if err != nil {
			fmt.Fprintln(os.Stderr, "login:", err)
			os.Exit(1)
		}
		pretty("LOGIN (after username_exists)", status, payload)
		if status != http.StatusOK {
			fmt.Println("Login failed; stopping demo.")
			return
		}
	case http.StatusCreated:
	default:
		fmt.Println("Signup failed; stopping demo.")
		return
	}

	sessionID, _ := payload["sessionId"].(string)
	sessionBody := map[string]string{"sessionId": sessionID}

	status, payload, err = c.post("/introspect", sessionBody)
	if err != nil {
		fmt.Fprintln(os.Stderr, "introspect:", err)
		os.Exit(1)
	}
	pretty("INTROSPECT (should be active:true)", status, payload)

	status, payload, err = c.post("/logout", sessionBody)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logout:", err)
		os.Exit(1)
	}
	pretty("LOGOUT", status, payload)

	status, payload, err = c.post("/introspect", sessionBody)
	if err != nil {
		fmt.Fprintln(os.Stderr, "introspect:", err)
		os.Exit(1)
	}
	pretty("INTROSPECT (should be active:false)", status, payload)
}
