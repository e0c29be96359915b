package config

import "time"

type Config struct {
	Web    Web
	Cors   Cors
	DB     DB
	Auth   Auth
	Oauth  Oauth
	Email  Email
	Paypal Paypal
	Stripe Stripe
	Rate   Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string `conf:"default:http://localhost:3000"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:studynotion"`
	DisableTLS bool   `conf:"default:true"`
}

type Auth struct {
	ActivationRequired bool `conf:"default:false"`
}

type Google struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}

type Oauth struct {
	Google           Google
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000/dashboard"`
}

type Email struct {
	Host          string        `conf:"default:localhost"`
	Port          int           `conf:"default:1025"`
	Address       string        `conf:"default:no-reply@studynotion.dev"`
	Password      string        `conf:"mask"`
	ActivationURL string        `conf:"default:http://localhost:3000/activate"`
	RecoveryURL   string        `conf:"default:http://localhost:3000/reset-password"`
	TokenTimeout  time.Duration `conf:"default:15m"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/payment/success"`
	CancelURL     string `conf:"default:http://localhost:3000/payment/canceled"`
}

type Rate struct {
	RequestsPerSecond float64 `conf:"default:20"`
	Burst             int     `conf:"default:40"`
	ExpiryMinutes     int     `conf:"default:10"`
}
