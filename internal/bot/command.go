// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import "strings"

type command struct {
	name   string   // lowercased, without slash and target
	target string   // bot username after @, if any
	args   []string // whitespace-separated arguments
}

// parseCommand parses text like "/join@my_bot https://example.com".
func parseCommand(text string) (command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return command{}, false
	}

	name, target, _ := strings.Cut(fields[0][1:], "@")
	if name == "" {
		return command{}, false
	}
	return command{
		name:   strings.ToLower(name),
		target: target,
		args:   fields[1:],
	}, true
}
