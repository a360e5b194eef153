package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/campus/internal/markdown"
	"git.home.luguber.info/inful/campus/internal/store"
)

// fixture is a small but complete content tree.
var fixture = map[string]string{
	"content/people/jane-doe.yml":   "firstName: Jane\nlastName: Doe\nemail: jane@example.org\n",
	"content/people/john-roe.yml":   "firstName: John\nlastName: Roe\n",
	"content/people/acme.yml":       "lastName: ACME Consortium\n",
	"content/tags/a.yml":            "name: Alpha\n",
	"content/tags/b.yml":            "name: Beta\n",
	"content/categories/dariah.yml": "name: DARIAH\nhost: dariah.eu\n",
	"content/resources/intro.mdx": `---
title: Introduction
date: 2021-01-25
lang: en
version: 1.0.0
licence: ccby-4.0
authors:
  - jane-doe
  - john-roe
tags:
  - b
  - a
categories:
  - dariah
type: training module
abstract: Getting started.
---
# Overview

Read [the docs](https://example.org/docs).

## Details
`,
	"content/events/summit.mdx": `---
title: Summit
date: 2021-03-01
eventType: conference
authors:
  - acme
tags:
  - a
type: event
about: The **summit** brings people together.
sessions:
  - title: Opening
    speakers:
      - jane-doe
    body: Welcome words.
  - title: Closing
---
Event body.
`,
	"content/curricula/basics.mdx": `---
title: Basics
date: 2021-02-01
abstract: A path through the basics.
resources:
  - intro
---
Curriculum text.
`,
	"documentation/writing.mdx":   "---\ntitle: Writing\norder: 2\n---\nHow to write.\n",
	"documentation/reviewing.mdx": "---\ntitle: Reviewing\norder: 1\n---\nHow to review.\n",
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func withFiles(extra map[string]string) map[string]string {
	out := make(map[string]string, len(fixture)+len(extra))
	for k, v := range fixture {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func newTestResolver(t *testing.T, files map[string]string) *Resolver {
	t.Helper()
	root := writeTree(t, files)
	r, err := NewResolver(store.NewFSReader(root), DefaultSchemas(nil), markdown.New(markdown.DefaultOptions()))
	require.NoError(t, err)
	return r
}
