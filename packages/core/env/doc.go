// Package env handles .env files and interactive prompts for hitblock.
//
// It provides functionality for:
//   - Loading environment files (.env, .env.local)
//   - Answering __pwd__ and __input__ request-line values, first from the
//     loaded variables and then interactively
//   - Reading secrets from a terminal without echo
package env
