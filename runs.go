package main

import (
	"gopkg.in/mgo.v2/bson"
)

// RunHistory represents training run meta-data database object
type RunHistory struct {
	DBName string
	DBColl string
}

// Insert inserts training run record into MetaData database
func (h *RunHistory) Insert(rec RunRecord) error {
	records := []RunRecord{rec}
	err := MongoInsert(h.DBName, h.DBColl, records)
	return err
}

// Records retrieves training run records from underlying MetaData
// database, most recent runs first
func (h *RunHistory) Records() ([]RunRecord, error) {
	spec := bson.M{}
	records, err := MongoGetSorted(h.DBName, h.DBColl, spec, []string{"-timestamp"})
	return records, err
}
