// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package digitalocean

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/digitalocean/godo"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/provider"
)

var _ provider.Client = (*Client)(nil)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := godo.New(srv.Client(), godo.SetBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("godo.New: %v", err)
	}
	return NewFromGodo(api)
}

const dropletJSON = `{"id":%d,"name":%q,"status":"active","size_slug":"s-2vcpu-4gb","region":{"slug":"sgp1"},"tags":["openclaw"],
 "networks":{"v4":[{"ip_address":"10.130.0.2","type":"private"},{"ip_address":"203.0.113.7","type":"public"}]}}`

func TestCreateDropletSendsTagsKeyAndUserData(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/droplets" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"droplet":`+dropletJSON+`}`, 42, "openclaw-abc")
	}))

	d, err := c.CreateDroplet(context.Background(), model.DropletSpec{
		Name: "openclaw-abc", Region: "sgp1", Size: "s-2vcpu-4gb", Image: "ubuntu-24-04-x64",
		SSHKeyID: 7, UserData: "#cloud-config\n", Tags: []string{model.DropletTag}, EnableBackups: true,
	})
	if err != nil {
		t.Fatalf("CreateDroplet: %v", err)
	}
	if d.ID != 42 || d.PublicIP != "203.0.113.7" || d.Region != "sgp1" || !d.HasTag(model.DropletTag) {
		t.Fatalf("unexpected droplet %+v", d)
	}
	if got["user_data"] != "#cloud-config\n" || got["backups"] != true {
		t.Fatalf("request body missing fields: %v", got)
	}
	if tags, _ := got["tags"].([]any); len(tags) != 1 || tags[0] != "openclaw" {
		t.Fatalf("request tags = %v", got["tags"])
	}
	if keys, _ := got["ssh_keys"].([]any); len(keys) != 1 || keys[0] != float64(7) {
		t.Fatalf("request ssh_keys = %v", got["ssh_keys"])
	}
}

func TestListDropletsFiltersByTagQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag_name") != "openclaw" {
			t.Errorf("missing tag filter: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"droplets":[`+dropletJSON+`,`+dropletJSON+`],"meta":{"total":2}}`, 1, "a", 2, "b")
	}))
	ds, err := c.ListDroplets(context.Background(), model.DropletTag)
	if err != nil || len(ds) != 2 || ds[1].Name != "b" {
		t.Fatalf("ListDroplets: %+v, %v", ds, err)
	}
}

func TestKeysRoundTrip(t *testing.T) {
	deleted := ""
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/account/keys":
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"ssh_key":{"id":9,"name":"clawmacdo-abc","fingerprint":"aa:bb","public_key":"ssh-ed25519 AAAA"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v2/account/keys":
			io.WriteString(w, `{"ssh_keys":[{"id":9,"name":"clawmacdo-abc","fingerprint":"aa:bb"}],"meta":{"total":1}}`)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/v2/account/keys/"):
			deleted = strings.TrimPrefix(r.URL.Path, "/v2/account/keys/")
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	ctx := context.Background()
	k, err := c.UploadKey(ctx, "clawmacdo-abc", "ssh-ed25519 AAAA")
	if err != nil || k.ID != 9 || k.Fingerprint != "aa:bb" {
		t.Fatalf("UploadKey: %+v, %v", k, err)
	}
	found, err := provider.FindKeyByName(ctx, c, "clawmacdo-abc")
	if err != nil || found.ID != 9 {
		t.Fatalf("FindKeyByName: %+v, %v", found, err)
	}
	if err := c.DeleteKey(ctx, 9); err != nil || deleted != "9" {
		t.Fatalf("DeleteKey: %v (deleted %q)", err, deleted)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   apperr.ProviderKind
	}{
		{http.StatusTooManyRequests, apperr.ProviderRateLimited},
		{http.StatusUnauthorized, apperr.ProviderUnauthorized},
		{http.StatusForbidden, apperr.ProviderUnauthorized},
		{http.StatusNotFound, apperr.ProviderNotFound},
		{http.StatusUnprocessableEntity, apperr.ProviderOther},
		{http.StatusBadGateway, apperr.ProviderOther},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				io.WriteString(w, `{"id":"x","message":"nope"}`)
			}))
			_, err := c.GetDroplet(context.Background(), 1)
			var pe *apperr.ProviderAPIError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProviderAPIError, got %T %v", err, err)
			}
			if pe.Kind != tc.kind || pe.Status != tc.status || pe.Message != "nope" {
				t.Fatalf("got kind=%s status=%d msg=%q", pe.Kind, pe.Status, pe.Message)
			}
		})
	}
}
