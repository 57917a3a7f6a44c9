/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package mocks

import (
	"context"
	"errors"
	"os"

	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

// FakeHTTPClient records the requested urls and writes Content to every
// destination instead of downloading anything
type FakeHTTPClient struct {
	ClientCalls []string
	Error       bool
	// Content, if set, is written to the destination of every call
	Content []byte
}

var _ v1.HTTPClient = &FakeHTTPClient{}

func (m *FakeHTTPClient) GetURL(ctx context.Context, _ v1.Logger, url string, destination string) error {
	m.ClientCalls = append(m.ClientCalls, url)
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Error {
		return errors.New("fake http error")
	}
	if m.Content != nil {
		return os.WriteFile(destination, m.Content, 0644)
	}
	return nil
}

// WasGetCalledWith reports whether url was requested
func (m *FakeHTTPClient) WasGetCalledWith(url string) bool {
	for _, c := range m.ClientCalls {
		if c == url {
			return true
		}
	}
	return false
}
