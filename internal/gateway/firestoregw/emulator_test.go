package firestoregw

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pollhub/internal/gateway"
	"pollhub/internal/gateway/gatewaytest"
)

const emulatorImage = "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators"

func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        emulatorImage,
			ExposedPorts: []string{"8080/tcp"},
			Cmd: []string{
				"gcloud", "beta", "emulators", "firestore", "start",
				"--host-port=0.0.0.0:8080",
			},
			WaitingFor: wait.ForLog("running").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	// the client library switches to the emulator when this is set
	t.Setenv("FIRESTORE_EMULATOR_HOST", host+":"+port.Port())

	client, err := firestore.NewClient(ctx, "pollhub-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEmulatorContract(t *testing.T) {
	client := newEmulatorClient(t)
	g := New(client, gateway.Constraints...)

	gatewaytest.Run(t, g, gatewaytest.Options{})

	// markers of deleted votes are gone, the live one remains
	ctx := context.Background()
	markers, err := client.Collection(uniqueCollection).Documents(ctx).GetAll()
	require.NoError(t, err)
	keys := make([]string, 0, len(markers))
	for _, m := range markers {
		if m.Data()["table"] == gateway.TableVotes {
			keys = append(keys, m.Ref.ID)
		}
	}
	assert.Equal(t, g.uniqueKeys(gateway.TableVotes, map[string]any{"poll_id": "p1", "dedupe_key": "user:carol"}), keys)
}

func TestEmulatorUniqueEmail(t *testing.T) {
	g := New(newEmulatorClient(t), gateway.Constraints...)
	ctx := context.Background()

	_, err := g.Insert(ctx, gateway.TableUsers, gateway.Record{"id": "u1", "email": "jane@example.com"})
	require.NoError(t, err)
	_, err = g.Insert(ctx, gateway.TableUsers, gateway.Record{"id": "u2", "email": "jane@example.com"})
	assert.ErrorIs(t, err, gateway.ErrUniqueViolation)

	rows, err := g.Select(ctx, gateway.TableUsers, gateway.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1, "a rejected insert writes nothing")

	_, err = g.Update(ctx, gateway.TableUsers, gateway.Filter{"id": "u1"}, gateway.Record{"email": "other@example.com"})
	assert.Error(t, err, "unique columns are immutable")

	n, err := g.Delete(ctx, gateway.TableUsers, gateway.Filter{"id": "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = g.Insert(ctx, gateway.TableUsers, gateway.Record{"id": "u2", "email": "jane@example.com"})
	assert.NoError(t, err, "email is free again after delete")
}
