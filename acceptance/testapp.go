//go:build acceptance
// +build acceptance

package acceptance

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Known account that exists before any test runs, on the local app and on the
// public demo store.
const (
	knownLogin    = "andrew.telychyn"
	knownPassword = "andrew.telychyn"
)

// TestApp serves a storefront with the same selectors and dialog messages as
// the public demo store, so the scenarios run without network access.
type TestApp struct {
	Server *httptest.Server
	URL    string

	mu    sync.Mutex
	users map[string]string
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type apiResponse struct {
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// NewTestApp starts the storefront with the known account registered.
func NewTestApp(logger *slog.Logger) *TestApp {
	app := &TestApp{
		users: map[string]string{knownLogin: knownPassword},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/index.html", http.StatusFound)
	})
	mux.HandleFunc("GET /index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("GET /cart.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(cartHTML))
	})

	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		app.mu.Lock()
		_, exists := app.users[c.Username]
		if !exists {
			app.users[c.Username] = c.Password
		}
		app.mu.Unlock()

		logger.Debug("Sign up", slog.String("username", c.Username), slog.Bool("exists", exists))
		if exists {
			writeJSON(w, apiResponse{ErrorMessage: "This user already exist."})
			return
		}
		writeJSON(w, apiResponse{})
	})

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		app.mu.Lock()
		password, exists := app.users[c.Username]
		app.mu.Unlock()

		logger.Debug("Log in", slog.String("username", c.Username), slog.Bool("exists", exists))
		switch {
		case !exists:
			writeJSON(w, apiResponse{ErrorMessage: "User does not exist."})
		case password != c.Password:
			writeJSON(w, apiResponse{ErrorMessage: "Wrong password."})
		default:
			writeJSON(w, apiResponse{})
		}
	})

	server := httptest.NewServer(mux)
	app.Server = server
	app.URL = server.URL
	return app
}

// Close shuts down the server.
func (a *TestApp) Close() {
	a.Server.Close()
}

// HasUser reports whether username is registered.
func (a *TestApp) HasUser(t *testing.T, username string) bool {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.users[username]
	return ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>STORE</title>
<style>
.modal { display: none; }
.modal.show { display: block; }
#nameofuser { display: none; }
</style>
</head>
<body>
<nav>
  <a id="cartur" href="cart.html">Cart</a>
  <a id="login2" href="#">Log in</a>
  <a id="signin2" href="#">Sign up</a>
  <a id="nameofuser" href="#"></a>
</nav>

<div class="modal" id="signInModal" aria-hidden="true">
  <input type="text" id="sign-username">
  <input type="password" id="sign-password">
  <button type="button" class="btn btn-secondary" data-close="signInModal">Close</button>
  <button type="button" class="btn btn-primary" onclick="register()">Sign up</button>
</div>

<div class="modal" id="logInModal" aria-hidden="true">
  <input type="text" id="loginusername">
  <input type="password" id="loginpassword">
  <button type="button" class="btn btn-secondary" data-close="logInModal">Close</button>
  <button type="button" class="btn btn-primary" onclick="logIn()">Log in</button>
</div>

<script>
console.log('storefront ready');

function showModal(id) {
  const m = document.getElementById(id);
  m.classList.add('show');
  m.setAttribute('aria-hidden', 'false');
}
function hideModal(id) {
  const m = document.getElementById(id);
  m.classList.remove('show');
  m.setAttribute('aria-hidden', 'true');
}
document.getElementById('signin2').addEventListener('click', (e) => { e.preventDefault(); showModal('signInModal'); });
document.getElementById('login2').addEventListener('click', (e) => { e.preventDefault(); showModal('logInModal'); });
document.querySelectorAll('[data-close]').forEach((b) => b.addEventListener('click', () => hideModal(b.dataset.close)));

function post(path, username, password) {
  return fetch(path, {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({username: username, password: password})
  }).then((r) => r.json());
}

function register() {
  const username = document.getElementById('sign-username').value;
  const password = document.getElementById('sign-password').value;
  post('/signup', username, password).then((data) => {
    if (data.errorMessage) {
      alert(data.errorMessage);
      return;
    }
    alert('Sign up successful.');
    hideModal('signInModal');
  });
}

function logIn() {
  const username = document.getElementById('loginusername').value;
  const password = document.getElementById('loginpassword').value;
  post('/login', username, password).then((data) => {
    if (data.errorMessage) {
      alert(data.errorMessage);
      return;
    }
    hideModal('logInModal');
    const name = document.getElementById('nameofuser');
    name.textContent = 'Welcome ' + username;
    name.style.display = 'inline';
  });
}
</script>
</body>
</html>
`

const cartHTML = `<!DOCTYPE html>
<html>
<head>
<title>STORE</title>
<style>
.modal { display: none; }
.modal.show { display: block; }
.sweet-alert { display: none; }
.sweet-alert.visible { display: block; }
</style>
</head>
<body>
<div id="page-wrapper">
  <h2>Products</h2>
  <button type="button" class="btn btn-success" onclick="document.getElementById('orderModal').classList.add('show')">Place Order</button>
</div>

<div class="modal" id="orderModal">
  <input type="text" id="name">
  <input type="text" id="country">
  <input type="text" id="city">
  <input type="text" id="card">
  <input type="text" id="month">
  <input type="text" id="year">
  <button type="button" class="btn btn-secondary">Close</button>
  <button type="button" class="btn btn-primary" onclick="purchase()">Purchase</button>
</div>

<div class="sweet-alert">
  <h2>Thank you for your purchase!</h2>
  <button class="confirm" onclick="window.location.href='index.html'">OK</button>
</div>

<script>
function purchase() {
  document.getElementById('orderModal').classList.remove('show');
  document.querySelector('.sweet-alert').classList.add('visible');
}
</script>
</body>
</html>
`
