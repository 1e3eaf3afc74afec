// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/kayyagari/ra/document"
	"github.com/kayyagari/ra/fault"
	"github.com/kayyagari/ra/fixtures"
	"github.com/kayyagari/ra/record"
	"github.com/kayyagari/ra/storage"
	"github.com/kayyagari/ra/storage/mocks"
	"github.com/kayyagari/ra/versionid"
)

var (
	patient      = document.LogicalKey{ResourceType: "Patient", ID: "p1"}
	organization = document.LogicalKey{ResourceType: "Organization", ID: "o1"}
)

func setup(t *testing.T) (*storage.Engine, string) {
	fixtures.SetupTestLogger()
	directory := filepath.Join(t.TempDir(), "ra.leveldb")
	e, err := storage.Open(directory, storage.Options{})
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	return e, directory
}

func teardown(e *storage.Engine) {
	_ = e.Close()
	fixtures.TeardownTestLogger()
}

func seal(t *testing.T, k document.LogicalKey, version versionid.ID, content *document.Value, deleted bool) record.Packed {
	payload, err := record.Encode(content, deleted, time.Now())
	if nil != err {
		t.Fatalf("encode error: %s", err)
	}
	packed, err := record.Seal(k, version, payload)
	if nil != err {
		t.Fatalf("seal error: %s", err)
	}
	return packed
}

func name(s string) *document.Value {
	return document.Map().Set("name", document.String(s))
}

// write versions of a key, the last one becomes current
func commitVersions(t *testing.T, e *storage.Engine, k document.LogicalKey, contents ...*document.Value) []versionid.ID {
	ids, err := versionid.NewAllocator().NextN(len(contents))
	assert.Nil(t, err, "allocate")

	b := e.NewBatch()
	for i, c := range contents {
		b.PutVersion(k, ids[i], seal(t, k, ids[i], c, false))
	}
	b.PutPointer(k, storage.Pointer{Version: ids[len(ids)-1]})
	assert.Equal(t, len(contents), b.Records(), "records")

	err = e.CommitBatch(b)
	assert.Nil(t, err, "commit")
	return ids
}

func TestCurrentAndVersions(t *testing.T) {
	e, _ := setup(t)
	defer teardown(e)

	_, err := e.GetCurrent(patient)
	assert.Equal(t, fault.ErrDocumentNotFound, err, "empty database")

	ids := commitVersions(t, e, patient, name("one"), name("two"))

	current, err := e.GetCurrent(patient)
	assert.Nil(t, err, "current")
	assert.Equal(t, ids[1], current.Version, "current version")
	assert.True(t, name("two").Equal(current.Content), "current content")

	old, err := e.GetVersion(patient, ids[0])
	assert.Nil(t, err, "old version")
	assert.True(t, name("one").Equal(old.Content), "old content")

	// cached read is equal and independent
	again, err := e.GetVersion(patient, ids[0])
	assert.Nil(t, err, "cached version")
	again.Content.Set("name", document.String("changed"))
	third, _ := e.GetVersion(patient, ids[0])
	assert.True(t, name("one").Equal(third.Content), "cache must not be shared")

	_, err = e.GetVersion(organization, ids[0])
	assert.Equal(t, fault.ErrDocumentNotFound, err, "wrong key")

	latest, err := e.LatestVersion()
	assert.Nil(t, err, "latest")
	assert.Equal(t, ids[1], latest, "latest version")
}

func TestHistoryNewestFirst(t *testing.T) {
	e, _ := setup(t)
	defer teardown(e)

	ids := commitVersions(t, e, patient, name("one"), name("two"), name("three"))

	// a key that sorts right after must not leak into the history
	commitVersions(t, e, document.LogicalKey{ResourceType: "Patient", ID: "p10"}, name("other"))

	cursor := e.History(patient)
	first, err := cursor.Fetch(2)
	assert.Nil(t, err, "first fetch")
	assert.Equal(t, 2, len(first), "first fetch count")
	assert.Equal(t, ids[2], first[0].Version, "newest")
	assert.Equal(t, ids[1], first[1].Version, "middle")

	second, err := cursor.Fetch(2)
	assert.Nil(t, err, "second fetch")
	assert.Equal(t, 1, len(second), "second fetch count")
	assert.Equal(t, ids[0], second[0].Version, "oldest")

	third, err := cursor.Fetch(2)
	assert.Nil(t, err, "third fetch")
	assert.Equal(t, 0, len(third), "exhausted")

	_, err = cursor.Fetch(0)
	assert.Equal(t, fault.ErrInvalidCount, err, "zero count")

	all := []versionid.ID{}
	err = e.History(patient).Map(func(d *document.Document) error {
		all = append(all, d.Version)
		return nil
	})
	assert.Nil(t, err, "map")
	assert.Equal(t, []versionid.ID{ids[2], ids[1], ids[0]}, all, "map order")
}

func TestTombstone(t *testing.T) {
	e, _ := setup(t)
	defer teardown(e)

	ids := commitVersions(t, e, patient, name("one"))

	deleted, err := versionid.NewAllocator().Next()
	assert.Nil(t, err, "allocate")
	b := e.NewBatch()
	b.PutVersion(patient, deleted, seal(t, patient, deleted, nil, true))
	b.PutPointer(patient, storage.Pointer{Version: deleted, Deleted: true})
	assert.Nil(t, e.CommitBatch(b), "commit")

	p, err := e.GetPointer(patient)
	assert.Nil(t, err, "pointer")
	assert.True(t, p.Deleted, "pointer state")
	assert.Equal(t, deleted, p.Version, "pointer version")

	_, err = e.GetCurrent(patient)
	assert.Equal(t, fault.ErrDocumentDeleted, err, "current of deleted")

	tomb, err := e.GetVersion(patient, deleted)
	assert.Nil(t, err, "tombstone")
	assert.True(t, tomb.Deleted, "tombstone flag")

	prior, err := e.GetVersion(patient, ids[0])
	assert.Nil(t, err, "prior version stays readable")
	assert.False(t, prior.Deleted, "prior flag")
}

func TestReferencesAndSearch(t *testing.T) {
	e, _ := setup(t)
	defer teardown(e)

	version, err := versionid.NewAllocator().Next()
	assert.Nil(t, err, "allocate")

	encounter := document.LogicalKey{ResourceType: "Encounter", ID: "e1"}
	b := e.NewBatch()
	b.PutReference(encounter, patient, version)
	b.PutReference(encounter, organization, version)
	b.PutSearch(patient, version, storage.SearchRow{Code: "family", Value: "chalmers"})
	b.PutSearch(patient, version, storage.SearchRow{Code: "given", Value: "peter"})
	assert.Nil(t, e.CommitBatch(b), "commit")

	refs, err := e.References(encounter)
	assert.Nil(t, err, "references")
	// keys order by length prefixed type then id
	assert.Equal(t, []document.LogicalKey{patient, organization}, refs, "forward")

	referrers, err := e.Referrers(patient)
	assert.Nil(t, err, "referrers")
	assert.Equal(t, []document.LogicalKey{encounter}, referrers, "reverse")

	found, err := e.Search("Patient", "family", "chalmers")
	assert.Nil(t, err, "search")
	assert.Equal(t, []document.LogicalKey{patient}, found, "search hit")

	found, err = e.Search("Patient", "family", "chalmer")
	assert.Nil(t, err, "search")
	assert.Equal(t, 0, len(found), "no partial match")

	rows, err := e.SearchRows(patient)
	assert.Nil(t, err, "rows")
	assert.Equal(t, 2, len(rows), "row count")

	b = e.NewBatch()
	b.DeleteReference(encounter, patient)
	b.DeleteSearch(patient, storage.SearchRow{Code: "family", Value: "chalmers"})
	assert.Nil(t, e.CommitBatch(b), "commit delete")

	referrers, _ = e.Referrers(patient)
	assert.Equal(t, 0, len(referrers), "reverse removed")
	found, _ = e.Search("Patient", "family", "chalmers")
	assert.Equal(t, 0, len(found), "search removed")
	rows, _ = e.SearchRows(patient)
	assert.Equal(t, []storage.SearchRow{{Code: "given", Value: "peter"}}, rows, "remaining row")
}

func TestCorruptionDetected(t *testing.T) {
	e, directory := setup(t)
	defer fixtures.TeardownTestLogger()

	ids := commitVersions(t, e, patient, name("one"))
	_, err := e.GetCurrent(patient)
	assert.Nil(t, err, "read before corruption")
	assert.Nil(t, e.Close(), "close")

	// flip the last payload byte of the stored record
	db, err := leveldb.OpenFile(directory, nil)
	assert.Nil(t, err, "raw open")
	iter := db.NewIterator(nil, nil)
	corrupted := false
	for iter.Next() {
		if 'R' == iter.Key()[0] {
			key := append([]byte{}, iter.Key()...)
			value := append([]byte{}, iter.Value()...)
			value[len(value)-1] ^= 0x01
			assert.Nil(t, db.Put(key, value, nil), "raw put")
			corrupted = true
		}
	}
	iter.Release()
	assert.Nil(t, db.Close(), "raw close")
	assert.True(t, corrupted, "record found")

	e, err = storage.Open(directory, storage.Options{})
	assert.Nil(t, err, "reopen")
	defer e.Close()

	_, err = e.GetVersion(patient, ids[0])
	var mismatch *fault.ChecksumMismatchError
	assert.True(t, errors.As(err, &mismatch), "expected checksum mismatch, got: %v", err)
	assert.Equal(t, patient.String(), mismatch.Key, "mismatch key")
	assert.Equal(t, ids[0].String(), mismatch.Version, "mismatch version")

	total, failed, err := e.Verify(nil)
	assert.Nil(t, err, "verify")
	assert.Equal(t, 1, total, "verify total")
	assert.Equal(t, 1, failed, "verify failed")
}

func TestCommitFailure(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	version := make([]byte, 4)
	binary.BigEndian.PutUint32(version, 0x100)

	access := mocks.NewMockDataAccess(ctl)
	access.EXPECT().Get(gomock.Any()).Return(version, nil).Times(1)
	access.EXPECT().Write(gomock.Any()).Return(errors.New("disk full")).Times(1)
	access.EXPECT().Close().Return(nil).Times(1)

	e, err := storage.New(access, storage.Options{})
	assert.Nil(t, err, "new")

	id, _ := versionid.NewAllocator().Next()
	b := e.NewBatch()
	b.PutVersion(patient, id, seal(t, patient, id, name("x"), false))
	err = e.CommitBatch(b)
	assert.Equal(t, fault.KindStorageUnavailable, fault.KindOf(err), "wrong kind: %v", err)

	assert.Nil(t, e.Close(), "close")
	err = e.CommitBatch(b)
	assert.Equal(t, fault.KindStorageUnavailable, fault.KindOf(err), "closed engine")
}

func TestNewerDatabaseRefused(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	version := make([]byte, 4)
	binary.BigEndian.PutUint32(version, 0x999)

	access := mocks.NewMockDataAccess(ctl)
	access.EXPECT().Get(gomock.Any()).Return(version, nil).Times(1)

	_, err := storage.New(access, storage.Options{})
	assert.Equal(t, fault.ErrDatabaseIsNewer, err, "newer layout")
}
