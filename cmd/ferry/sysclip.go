// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	zlog "github.com/rs/zerolog/log"
	sysclip "golang.design/x/clipboard"

	"github.com/walteh/ferry/pkg/clipboard"
	"gitlab.com/tozd/go/errors"
)

// 📋 systemText bridges the OS clipboard to the clipboard.TextClipboard
// interface
type systemText struct{}

func (systemText) Write(text string) error {
	sysclip.Write(sysclip.FmtText, []byte(text))
	return nil
}

func (systemText) Read() (string, error) {
	data := sysclip.Read(sysclip.FmtText)
	if data == nil {
		return "", errors.New("clipboard has no text")
	}
	return string(data), nil
}

// newSystemText returns the OS clipboard, or nil on headless hosts where it
// cannot be initialized. A nil TextClipboard disables mirroring only; every
// other operation works unchanged.
func newSystemText() clipboard.TextClipboard {
	if err := sysclip.Init(); err != nil {
		zlog.Debug().Err(err).Msg("system clipboard unavailable")
		return nil
	}
	return systemText{}
}
