package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopfront/storefront-backend/pkg/config"
	"github.com/shopfront/storefront-backend/pkg/logger"
	"github.com/shopfront/storefront-backend/pkg/security"
)

// admin-token prints a fresh admin API token (or hashes one read from stdin) together with
// the Argon2id hash to place in STOREFRONT_ADMIN_API_TOKEN_HASH.
func main() {
	logg := logger.New(logger.Options{ServiceName: "admin-token"})

	length := flag.Int("length", 40, "length of the generated token")
	stdin := flag.Bool("stdin", false, "hash a token read from stdin instead of generating one")
	memory := flag.Uint("memory-kb", uint(security.DefaultParams.Memory), "argon2id memory in KiB")
	iterations := flag.Uint("time", uint(security.DefaultParams.Time), "argon2id iterations")
	flag.Parse()

	var token string
	if *stdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logg.Error(context.Background(), "failed to read token from stdin", err)
			os.Exit(1)
		}
		token = strings.TrimSpace(line)
	} else {
		generated, err := security.GenerateToken(*length)
		if err != nil {
			logg.Error(context.Background(), "failed to generate token", err)
			os.Exit(1)
		}
		token = generated
	}

	params := security.DefaultParams
	params.Memory = uint32(*memory)
	params.Time = uint32(*iterations)

	hash, err := security.HashToken(token, params)
	if err != nil {
		logg.Error(context.Background(), "failed to hash token", err)
		os.Exit(1)
	}

	if !*stdin {
		fmt.Printf("%s=%s\n", config.EnvAdminAPIToken, token)
	}
	fmt.Printf("%s=%s\n", config.EnvAdminTokenHash, hash)
}
