package testsys

import (
	"context"

	"github.com/spf13/viper"

	"github.com/testsys-project/testsys/pkg/client"
	"github.com/testsys-project/testsys/pkg/store"
	"github.com/testsys-project/testsys/pkg/store/boltstore"
)

func getStorePath() string {
	if storePath != "" {
		return storePath
	}
	return viper.GetString("store-path")
}

func getStore() (store.Store, error) {
	return boltstore.NewBoltStore(getStorePath())
}

// getTestClient opens the record store and returns a test client over it,
// plus a closer the command must defer.
func getTestClient(ctx context.Context) (*client.TestClient, func(), error) {
	s, err := getStore()
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		_ = s.Close(ctx)
	}
	return client.NewTestClient(s), closer, nil
}
