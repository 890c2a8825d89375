package stores

import (
	"cardstudio/config"
	"cardstudio/core"
	"cardstudio/stores/aws"
	"cardstudio/stores/filesystem"
	"cardstudio/stores/memory"
	"cardstudio/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// GetStore returns the card store selected by cfg.Type.
func GetStore(cfg config.Storage) core.CardStore {
	var store core.CardStore

	storageField := logrus.Fields{
		"storageType": cfg.Type,
	}

	switch cfg.Type {
	case "filesystem":
		storageField["basePath"] = cfg.LocalPath
		store = filesystem.NewStore(cfg.LocalPath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewStore(cfg.DataSourceName)
	case "s3":
		storageField["bucketName"] = cfg.S3Bucket
		store = aws.NewStore(cfg.S3Bucket)
	default:
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
