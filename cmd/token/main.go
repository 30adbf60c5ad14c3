// Command token mints a bearer token for the REST API. The API has no
// login flow, so operators hand tokens out with this tool.
package main

import (
	"flag"
	"fmt"
	"log"

	"telegram-marketplace/internal/config"
	"telegram-marketplace/internal/domain/model"
	"telegram-marketplace/internal/infra/web"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userID := flag.String("user", "", "telegram id the token is for")
	role := flag.String("role", "client", "role claim: client|seller|admin")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}
	r, err := model.ParseRole(*role)
	if err != nil {
		log.Fatalf("role: %v", err)
	}

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	auth := web.NewAuthManager(cfg.Web.JWTSecret, cfg.Web.JWTTTL)
	tok, err := auth.Mint(*userID, r)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}
