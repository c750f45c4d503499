// Copyright 2025 VidSense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"fmt"
	"regexp"
)

// A YouTube video ID is exactly 11 characters of [A-Za-z0-9_-].
var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// URL shapes we accept: youtube.com/watch?v=<id> (with or without extra
// query parameters, in any order) and youtu.be/<id>. The capture must end
// at a non-identifier character or the end of the URL: a 12+ character
// token is a malformed identifier, not an identifier with a suffix, and
// truncating it would silently point at a different video.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
	regexp.MustCompile(`youtube\.com/watch\?.*[?&]v=([a-zA-Z0-9_-]{11})(?:[^a-zA-Z0-9_-]|$)`),
}

// ValidVideoID reports whether id is a well-formed 11-character video
// identifier.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ExtractVideoID parses the stable video identifier out of a YouTube URL.
// It returns an error for URLs that are not YouTube watch links or that do
// not carry a well-formed identifier.
func ExtractVideoID(rawURL string) (string, error) {
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video ID from URL %q", rawURL)
}
