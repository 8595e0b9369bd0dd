// Command orderwatch tails a user's order list over the realtime
// channel. It performs an initial fetch over REST, then keeps the
// local list in sync from newOrder and update-status events, printing
// a line whenever the list changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Shubhams-here/Dabba-Drop/internal/auth"
	"github.com/Shubhams-here/Dabba-Drop/internal/client"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	token := flag.String("token", os.Getenv("DABBADROP_TOKEN"), "session JWT (defaults to DABBADROP_TOKEN)")
	interval := flag.Duration("interval", time.Second, "poll interval for printing changes")
	flag.Parse()

	if *token == "" {
		log.Fatal("a session token is required: pass -token or set DABBADROP_TOKEN")
	}

	userID, err := identityFromToken(*token)
	if err != nil {
		log.Fatalf("cannot read identity from token: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := client.NewOrderStore(userID, logger)
	if err := store.Fetch(ctx, *baseURL, *token); err != nil {
		logger.Warn("initial fetch failed, starting from an empty list", zap.Error(err))
	}

	socket, err := client.Dial(ctx, wsEndpoint(*baseURL), *token, logger)
	if err != nil {
		logger.Fatal("realtime channel unavailable", zap.Error(err))
	}
	defer socket.Close()
	store.Bind(socket)
	defer store.Unbind(socket)

	printOrders(store.Orders())
	last := fingerprint(store.Orders())

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-socket.Done():
			logger.Info("realtime channel closed, exiting")
			return
		case <-ticker.C:
			orders := store.Orders()
			if fp := fingerprint(orders); fp != last {
				last = fp
				printOrders(orders)
			}
		}
	}
}

// identityFromToken reads the user_id claim without verifying the
// signature; verification is the server's job, the client only needs
// its own identity for event filtering.
func identityFromToken(token string) (string, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("token carries no user_id claim")
	}
	return claims.UserID, nil
}

func wsEndpoint(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "/ws"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}

func fingerprint(orders []models.Order) string {
	var b strings.Builder
	for _, o := range orders {
		b.WriteString(o.ID.Hex())
		for _, so := range o.ShopOrders {
			b.WriteByte(':')
			b.WriteString(string(so.Status))
		}
		b.WriteByte('|')
	}
	return b.String()
}

func printOrders(orders []models.Order) {
	fmt.Printf("-- %d order(s) --\n", len(orders))
	for _, o := range orders {
		for _, so := range o.ShopOrders {
			fmt.Printf("%s  shop=%s  status=%s  subtotal=%.2f\n",
				o.ID.Hex(), so.Shop.Hex(), so.Status, so.Subtotal)
		}
	}
}
