// Command tokengen issues an operator bearer token signed with the
// configured AUTH_JWT_SECRET.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Temutjin2k/taximeter/config"
	"github.com/Temutjin2k/taximeter/internal/domain/types"
	"github.com/Temutjin2k/taximeter/internal/service/auth"
	"github.com/Temutjin2k/taximeter/pkg/logger"
)

var (
	operatorFlag = flag.String("operator", "", "operator id written to the token subject")
	roleFlag     = flag.String("role", types.RoleOperator.String(), "OPERATOR or VIEWER")
	ttlFlag      = flag.Duration("ttl", 0, "token lifetime (defaults to AUTH_ACCESS_TOKEN_TTL)")
)

func main() {
	ctx := context.Background()
	log := logger.InitLogger("tokengen", logger.LevelError)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *operatorFlag == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		flag.Usage()
		os.Exit(2)
	}

	ttl := cfg.Auth.AccessTokenTTL
	if *ttlFlag > 0 {
		ttl = *ttlFlag
	}

	svc := auth.NewTokenService(cfg.Auth.JWTSecret, ttl, log)
	token, exp, err := svc.Issue(ctx, *operatorFlag, types.UserRole(*roleFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", exp.Format(time.RFC3339))
}
