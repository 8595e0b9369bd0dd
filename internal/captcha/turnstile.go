package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
)

const tokenIssuer = "dabbadrop-captcha"

// IVerifier checks a client-supplied captcha response.
type IVerifier interface {
	Verify(ctx context.Context, response, remoteIP string) error
}

// turnstileResponse mirrors Cloudflare's siteverify reply.
type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// TurnstileVerifier implements IVerifier against Cloudflare Turnstile.
type TurnstileVerifier struct {
	secretKey     string
	siteVerifyURL string
	httpClient    *http.Client
}

// NewTurnstileVerifier creates a verifier from config. When no secret
// key is configured (local development), verification always succeeds.
func NewTurnstileVerifier(cfg *config.Config) *TurnstileVerifier {
	return &TurnstileVerifier{
		secretKey:     cfg.CloudflareTurnstileSecretKey,
		siteVerifyURL: cfg.CloudflareSiteVerifyURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *TurnstileVerifier) Verify(ctx context.Context, response, remoteIP string) error {
	if v.secretKey == "" {
		return nil
	}
	if response == "" {
		return fmt.Errorf("missing captcha response")
	}

	form := url.Values{}
	form.Set("secret", v.secretKey)
	form.Set("response", response)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.siteVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify request failed: %w", err)
	}
	defer resp.Body.Close()

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode siteverify response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("captcha verification failed: %s", strings.Join(result.ErrorCodes, ", "))
	}
	return nil
}

// GenerateCaptchaToken mints a short-lived pass so a visitor who solved
// the captcha once is not challenged on every request.
func GenerateCaptchaToken(secretKey string, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// ValidateCaptchaToken checks a previously issued pass.
func ValidateCaptchaToken(tokenString, secretKey string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return fmt.Errorf("invalid captcha token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid captcha token")
	}
	return nil
}
