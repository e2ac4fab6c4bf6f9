package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/d65v/vecbase"
	"github.com/d65v/vecbase/blobstore"
	minioblob "github.com/d65v/vecbase/blobstore/minio"
	s3blob "github.com/d65v/vecbase/blobstore/s3"
	"github.com/d65v/vecbase/codec"
	"github.com/d65v/vecbase/persistence"
)

var (
	snapCodec       string
	snapCompression string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save, load and transfer store snapshots",
	Long: `Move data between the record store at --storage-path and snapshot files,
and transfer snapshot files to and from blob storage.

Transfer destinations:

  s3://bucket/name     S3 via the default AWS config chain
  minio://bucket/name  MinIO; endpoint and credentials come from
                       MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY
                       (MINIO_SECURE=true for TLS)
  anything else        local filesystem path`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Capture the record store into a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rs, err := persistence.OpenRecordStore(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer rs.Close()

		db, err := rs.Restore(cmd.Context(), storeOptions(vecbase.NoopMetricsCollector{})...)
		if err != nil {
			return err
		}

		c, ok := codec.ByName(snapCodec)
		if !ok {
			return fmt.Errorf("unknown codec %q", snapCodec)
		}

		snap := persistence.Capture(db)
		err = persistence.SaveFile(args[0], snap, func(o *persistence.WriteOptions) {
			o.Codec = c
			o.Compression = persistence.ParseCompression(snapCompression)
		})
		if err != nil {
			return err
		}
		fmt.Printf("saved %d records to %s\n", len(snap.Records), args[0])
		return nil
	},
}

var snapshotLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replace the record store with a snapshot file's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		snap, err := persistence.LoadFile(args[0])
		if err != nil {
			return err
		}

		db, err := persistence.Restore(cmd.Context(), snap, storeOptions(vecbase.NoopMetricsCollector{})...)
		if err != nil {
			return err
		}

		rs, err := persistence.OpenRecordStore(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer rs.Close()

		if err := rs.Mirror(db); err != nil {
			return err
		}
		fmt.Printf("loaded %d records into %s\n", db.Len(), cfg.StoragePath)
		return nil
	},
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push <file> <dest>",
	Short: "Upload a snapshot file to blob storage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if _, err := persistence.Read(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("%s is not a snapshot: %w", args[0], err)
		}

		store, name, err := openBlobStore(ctx, args[1])
		if err != nil {
			return err
		}
		if err := store.Put(ctx, name, data); err != nil {
			return err
		}
		fmt.Printf("pushed %s (%d bytes) to %s\n", args[0], len(data), args[1])
		return nil
	},
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull <src> <file>",
	Short: "Download a snapshot file from blob storage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, name, err := openBlobStore(ctx, args[0])
		if err != nil {
			return err
		}
		data, err := store.Get(ctx, name)
		if err != nil {
			return err
		}
		if _, err := persistence.Read(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("%s is not a snapshot: %w", args[0], err)
		}

		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return err
		}
		fmt.Printf("pulled %s (%d bytes) to %s\n", args[0], len(data), args[1])
		return nil
	},
}

func init() {
	snapshotSaveCmd.Flags().StringVar(&snapCodec, "codec", "msgpack", "record codec: msgpack | json")
	snapshotSaveCmd.Flags().StringVar(&snapCompression, "compression", "lz4", "payload compression: none | lz4 | zstd")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotLoadCmd)
	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotCmd.AddCommand(snapshotPullCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// openBlobStore resolves a transfer destination into a blob store and the
// blob name within it.
func openBlobStore(ctx context.Context, dest string) (blobstore.BlobStore, string, error) {
	switch {
	case strings.HasPrefix(dest, "s3://"):
		bucket, name, err := splitBucketName(strings.TrimPrefix(dest, "s3://"))
		if err != nil {
			return nil, "", err
		}
		store, err := s3blob.NewStoreFromDefaultConfig(ctx, bucket, "")
		if err != nil {
			return nil, "", err
		}
		return store, name, nil

	case strings.HasPrefix(dest, "minio://"):
		bucket, name, err := splitBucketName(strings.TrimPrefix(dest, "minio://"))
		if err != nil {
			return nil, "", err
		}
		endpoint := os.Getenv("MINIO_ENDPOINT")
		if endpoint == "" {
			return nil, "", fmt.Errorf("minio destination requires MINIO_ENDPOINT")
		}
		client, err := minio.New(endpoint, &minio.Options{
			Creds: credentials.NewStaticV4(
				os.Getenv("MINIO_ACCESS_KEY"),
				os.Getenv("MINIO_SECRET_KEY"),
				"",
			),
			Secure: os.Getenv("MINIO_SECURE") == "true",
		})
		if err != nil {
			return nil, "", err
		}
		return minioblob.NewStore(client, bucket, ""), name, nil

	default:
		dir, name := filepath.Split(dest)
		if name == "" {
			return nil, "", fmt.Errorf("destination %q has no file name", dest)
		}
		if dir == "" {
			dir = "."
		}
		return blobstore.NewLocalStore(dir), name, nil
	}
}

func splitBucketName(s string) (bucket, name string, err error) {
	bucket, name, ok := strings.Cut(s, "/")
	if !ok || bucket == "" || name == "" {
		return "", "", fmt.Errorf("destination must be bucket/name, got %q", s)
	}
	return bucket, name, nil
}
