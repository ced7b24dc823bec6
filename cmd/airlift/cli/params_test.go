// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"
	"time"
)

type testParams struct {
	JSONOutput
	Name     string        `flag:"name,n" desc:"a name"`
	Count    int           `flag:"count" default:"3"`
	Wait     time.Duration `flag:"wait" default:"5s"`
	Verbose  bool          `flag:"verbose,v"`
	Tags     []string      `flag:"tag"`
	Internal string
}

func TestBindFlagsParsesTaggedFields(t *testing.T) {
	var params testParams
	flagSet := FlagsFromParams("test", &params)

	err := flagSet.Parse([]string{
		"--name", "summarizer",
		"--wait", "30s",
		"-v",
		"--tag", "a", "--tag", "b",
		"--json",
	})
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}

	if params.Name != "summarizer" {
		t.Errorf("Name = %q", params.Name)
	}
	if params.Count != 3 {
		t.Errorf("Count = %d, want default 3", params.Count)
	}
	if params.Wait != 30*time.Second {
		t.Errorf("Wait = %v", params.Wait)
	}
	if !params.Verbose {
		t.Error("Verbose = false after -v")
	}
	if len(params.Tags) != 2 || params.Tags[0] != "a" || params.Tags[1] != "b" {
		t.Errorf("Tags = %v", params.Tags)
	}
	if !params.OutputJSON {
		t.Error("OutputJSON = false after --json (embedded struct not bound)")
	}
}

func TestBindFlagsShorthand(t *testing.T) {
	var params testParams
	flagSet := FlagsFromParams("test", &params)

	if err := flagSet.Parse([]string{"-n", "short"}); err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if params.Name != "short" {
		t.Errorf("Name = %q", params.Name)
	}
}

func TestBindFlagsSkipsUntaggedFields(t *testing.T) {
	var params testParams
	flagSet := FlagsFromParams("test", &params)

	if flagSet.Lookup("internal") != nil {
		t.Error("untagged field was bound to a flag")
	}
}

func TestBindFlagsRejectsNonPointer(t *testing.T) {
	if err := BindFlags(testParams{}, nil); err == nil {
		t.Error("BindFlags on a non-pointer succeeded, want error")
	}
}

type badParams struct {
	Rate float64 `flag:"rate"`
}

func TestBindFlagsRejectsUnsupportedType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic on an unsupported field type")
		}
	}()
	var params badParams
	FlagsFromParams("bad", &params)
}
