// Package gamedata holds the monster bestiary, embedded at build time and
// loaded through a small generic JSON helper.
package gamedata

import "embed"

//go:embed *.json
var dataFS embed.FS
