package repository

import (
	"github.com/dbkchain/bridge-service/db"
	"github.com/dbkchain/bridge-service/entity"
	"github.com/dbkchain/bridge-service/repository/postgres"
)

type Repo struct {
	BridgeRecords entity.BridgeRecordsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		BridgeRecords: postgres.NewBridgeRecordsRepo("bridge_records", db),
	}
}
