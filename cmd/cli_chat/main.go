package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"hashchat/internal/domain"
	"hashchat/internal/relay"
)

type cliConfig struct {
	BaseURL  string `env:"HASHCHAT_URL" envDefault:"http://localhost:5000"`
	Email    string `env:"HASHCHAT_EMAIL"`
	Password string `env:"HASHCHAT_PASSWORD"`
}

type session struct {
	baseURL string
	http    *http.Client
	userID  string
	name    string
	token   string
}

type peer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}
	if cfg.Email == "" {
		cfg.Email = prompt(reader, "Email: ")
	}
	if cfg.Password == "" {
		cfg.Password = prompt(reader, "Password: ")
	}

	s := &session{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	if err := s.login(ctx, cfg.Email, cfg.Password); err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("Conectado como %s (ID: %s)\n", s.name, s.userID)

	var target peer
	for target.ID == "" {
		username := prompt(reader, "Chatear con (username): ")
		p, err := s.lookup(ctx, username)
		if err != nil {
			fmt.Printf("No se encontro el usuario: %v\n", err)
			continue
		}
		target = p
	}

	if err := s.printHistory(ctx, target); err != nil {
		log.Printf("historial: %v", err)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		log.Fatalf("websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(relay.Event{Type: relay.EventJoin, Payload: map[string]string{"userId": s.userID}}); err != nil {
		log.Fatalf("join: %v", err)
	}

	done := make(chan struct{})
	go readEvents(conn, target, done)

	fmt.Println("Escribe un mensaje y presiona Enter. Comandos: /historial, /salir")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "/salir":
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case line == "/historial":
			if err := s.printHistory(ctx, target); err != nil {
				log.Printf("historial: %v", err)
			}
			continue
		}

		select {
		case <-done:
			fmt.Println("Conexion cerrada por el servidor.")
			return
		default:
		}
		err = conn.WriteJSON(relay.Event{Type: relay.EventSendMessage, Payload: relay.SubmitInput{
			Sender:   s.userID,
			Receiver: target.ID,
			Text:     line,
		}})
		if err != nil {
			log.Printf("enviar: %v", err)
			return
		}
	}
}

func readEvents(conn *websocket.Conn, target peer, done chan<- struct{}) {
	defer close(done)
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Type {
		case relay.EventReceiveMessage:
			var p domain.DeliveryPayload
			if err := json.Unmarshal(f.Payload, &p); err != nil {
				continue
			}
			// Mensajes de otras conversaciones se muestran con el remitente.
			if p.Sender != target.ID && p.Receiver != target.ID {
				fmt.Printf("\n[otra conversacion] %s: %s\n", p.SenderDisplayName, p.Text)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", p.CreatedAt.Local().Format("15:04"), p.SenderDisplayName, p.Text)
		case relay.EventError:
			var p relay.ErrorPayload
			_ = json.Unmarshal(f.Payload, &p)
			fmt.Printf("Error: %s\n", p.Message)
		}
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}

func (s *session) login(ctx context.Context, email, password string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	var resp struct {
		User   peer `json:"user"`
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := s.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return err
	}
	s.userID = resp.User.ID
	s.name = resp.User.Username
	s.token = resp.Tokens.AccessToken
	if s.userID == "" || s.token == "" {
		return errors.New("empty login response")
	}
	return nil
}

func (s *session) lookup(ctx context.Context, username string) (peer, error) {
	var p peer
	err := s.do(ctx, http.MethodGet, "/api/user/username/"+url.PathEscape(strings.TrimSpace(username)), nil, &p)
	return p, err
}

func (s *session) printHistory(ctx context.Context, target peer) error {
	var msgs []domain.Message
	path := fmt.Sprintf("/api/messages/%s/%s", url.PathEscape(s.userID), url.PathEscape(target.ID))
	if err := s.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return err
	}
	fmt.Printf("--- Historial con %s (%d mensajes) ---\n", target.Username, len(msgs))
	for _, m := range msgs {
		author := target.Username
		if m.SenderID == s.userID {
			author = s.name
		}
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("02/01 15:04"), author, m.Text)
	}
	fmt.Println("---")
	return nil
}

func (s *session) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": []string{s.token}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (s *session) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
