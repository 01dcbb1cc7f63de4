package main

import (
	"fmt"
	"os"
	"time"

	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/middleware"

	"github.com/spf13/pflag"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "載入設定失敗: %v\n", err)
		os.Exit(1)
	}
	admin := config.Get().Security.Admin

	defaultTTL, err := time.ParseDuration(admin.Expiration)
	if err != nil {
		defaultTTL = 24 * time.Hour
	}

	subject := pflag.String("subject", "admin", "token subject")
	ttl := pflag.Duration("ttl", defaultTTL, "token validity")
	pflag.Parse()

	if admin.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "security.admin.jwt_secret (ADMIN_JWT_SECRET) 未設定")
		os.Exit(1)
	}

	token, err := middleware.IssueAdminToken([]byte(admin.JWTSecret), admin.JWTIssuer, *subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "簽發失敗: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
