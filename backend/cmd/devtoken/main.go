// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command devtoken signs a JWT for local testing against a dev server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/efchatnet/efmsg/backend/middleware"
)

func main() {
	_ = godotenv.Load()

	username := flag.String("user", "", "Username to put in the token")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HS256 signing secret (default $JWT_SECRET)")
	issuer := flag.String("issuer", envOr("JWT_ISSUER", "efchat"), "Token issuer")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *username == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "Usage: devtoken -user <username> [-secret <secret>] [-issuer <issuer>] [-ttl 24h]")
		os.Exit(1)
	}

	token, err := middleware.IssueToken(*secret, *issuer, *username, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
