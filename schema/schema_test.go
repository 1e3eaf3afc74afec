// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package schema_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/fixtures"
	"github.com/kayyagari/ra/schema"
)

func parseDefault(t *testing.T) *schema.Schema {
	s, err := schema.Parse(schema.DefaultSource)
	if nil != err {
		t.Fatalf("parse default error: %s", err)
	}
	return s
}

func TestParseDefault(t *testing.T) {
	s := parseDefault(t)
	assert.Equal(t, []string{"Encounter", "Observation", "Organization", "Patient", "Practitioner"}, s.Types(), "types")

	r, ok := s.Resource("Encounter")
	assert.True(t, ok, "encounter")
	assert.Equal(t, "participant.individual.reference", r.References[1].String(), "reference path")
	assert.Equal(t, "status", r.Required[0].String(), "required path")
	assert.Equal(t, schema.SearchParameter{Code: "status", Expression: "status"}, r.Search[0], "search")

	r, ok = s.Resource("Practitioner")
	assert.True(t, ok, "practitioner")
	assert.Equal(t, 0, len(r.References), "no references")

	_, ok = s.Resource("Medication")
	assert.False(t, ok, "unknown")
}

func TestParseRejects(t *testing.T) {
	sources := []string{
		`return { resources = {} }`,
		`return { resources = { patient = { required = { "x" } } } }`,
		`return { resources = { Patient = { search = { { code = "a" } } } } }`,
		`return { resources = { Patient = { search = { { code = "a", expression = "x" }, { code = "a", expression = "y" } } } } }`,
		`not lua at all`,
	}
	for i, source := range sources {
		_, err := schema.Parse(source)
		assert.NotNil(t, err, "%d: expected error", i)
	}
}

func TestStructuralValidator(t *testing.T) {
	v := schema.NewStructuralValidator(parseDefault(t))

	items := []struct {
		resourceType string
		json         string
		violations   []fault.Violation
	}{
		{
			"Encounter",
			`{"resourceType":"Encounter","status":"finished","subject":{"reference":"Patient/p1"},
			  "participant":[{"individual":{"reference":"Practitioner/x"}}]}`,
			[]fault.Violation{},
		},
		{
			"Encounter",
			`{"resourceType":"Encounter","subject":{"reference":"Patient/p1"}}`,
			[]fault.Violation{{ResourceType: "Encounter", Path: "status", Rule: schema.RuleRequired}},
		},
		{
			"Encounter",
			`{"resourceType":"Patient","status":"planned","id":"bad id"}`,
			[]fault.Violation{
				{ResourceType: "Encounter", Path: "resourceType", Rule: schema.RuleTypeMismatch},
				{ResourceType: "Encounter", Path: "id", Rule: schema.RuleInvalidID},
			},
		},
		{
			"Encounter",
			`{"status":"planned","subject":{"reference":42},
			  "participant":[{"individual":{"reference":"urn:uuid:61ebe359-bfdc-4613-8bf2-c5e300945f0a"}},
			                 {"individual":{"reference":"https://example.org/fhir/Practitioner/1"}}]}`,
			[]fault.Violation{
				{ResourceType: "Encounter", Path: "subject.reference", Rule: schema.RuleReferenceString},
				{ResourceType: "Encounter", Path: "participant.individual.reference", Rule: schema.RuleInvalidReference},
			},
		},
		{
			"Medication",
			`{}`,
			[]fault.Violation{{ResourceType: "Medication", Path: "", Rule: schema.RuleUnknownType}},
		},
		{
			"Patient",
			`[1, 2]`,
			[]fault.Violation{{ResourceType: "Patient", Path: "", Rule: schema.RuleNotObject}},
		},
	}

	for i, item := range items {
		content, err := document.FromJSON([]byte(item.json))
		assert.Nil(t, err, "%d: parse", i)
		assert.Equal(t, item.violations, v.Validate(item.resourceType, content), "%d: violations", i)
	}
}

func TestInitialiseAndReload(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	fileName := filepath.Join(t.TempDir(), "schema.lua")
	err := ioutil.WriteFile(fileName, []byte(`return { resources = { Patient = { required = { "name" } } } }`), 0600)
	assert.Nil(t, err, "write")

	assert.Nil(t, schema.Get(), "nothing before initialise")
	err = schema.Initialise(fileName)
	assert.Nil(t, err, "initialise")
	defer schema.Finalise()

	assert.Equal(t, fault.ErrAlreadyInitialised, schema.Initialise(fileName), "second initialise")
	assert.Equal(t, []string{"Patient"}, schema.Get().Types(), "initial types")

	// the process wide validator follows reloads
	v := schema.NewStructuralValidator(nil)
	assert.Equal(t, 0, len(v.Validate("Patient", document.Map().Set("name", document.String("x")))), "valid")

	// a broken file keeps the old definitions
	err = ioutil.WriteFile(fileName, []byte(`return { resources = `), 0600)
	assert.Nil(t, err, "write broken")
	assert.NotNil(t, schema.Reload(), "reload broken")
	assert.Equal(t, []string{"Patient"}, schema.Get().Types(), "kept types")

	err = ioutil.WriteFile(fileName, []byte(`return { resources = { Patient = {}, Organization = { required = { "name" } } } }`), 0600)
	assert.Nil(t, err, "write new")

	// picked up by the watcher
	deadline := time.Now().Add(5 * time.Second)
	for 2 != len(schema.Get().Types()) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, []string{"Organization", "Patient"}, schema.Get().Types(), "reloaded types")
	assert.Equal(t, 1, len(v.Validate("Organization", document.Map())), "new definition in force")
}

func TestInitialiseDefault(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	assert.Equal(t, fault.ErrNotInitialised, schema.Finalise(), "finalise before initialise")
	assert.Nil(t, schema.Initialise(""), "initialise default")
	assert.Equal(t, 5, len(schema.Get().Types()), "default types")
	assert.Nil(t, schema.Reload(), "reload default")
	assert.Nil(t, schema.Finalise(), "finalise")
	assert.Nil(t, schema.Get(), "nothing after finalise")
}
