// Package storage builds the replica set from the environment.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"filestream/internal/adapters/storage/gdrive"
	"filestream/internal/adapters/storage/localfs"
	"filestream/internal/adapters/storage/remote"
	s3adapter "filestream/internal/adapters/storage/s3"
	"filestream/internal/ports"
)

// NewReplicas builds one replica per entry of STORAGE_REPLICAS
// (comma-separated, default "localfs"). Remote entries use the form
// "remote=https://peer.example.com".
func NewReplicas() ([]ports.Replica, error) {
	spec := os.Getenv("STORAGE_REPLICAS")
	if spec == "" {
		spec = "localfs"
	}

	var replicas []ports.Replica
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, arg, _ := strings.Cut(entry, "=")
		switch name {
		case "localfs":
			root := mustEnv("STORAGE_LOCAL_ROOT")
			replicas = append(replicas, localfs.New(root))

		case "s3":
			r, err := newS3Replica()
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, r)

		case "gdrive":
			r, err := newGDriveReplica()
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, r)

		case "remote":
			if arg == "" {
				return nil, fmt.Errorf("remote replica needs a base URL, e.g. remote=https://peer:8080")
			}
			token := mustEnv("CLUSTER_TOKEN")
			replicas = append(replicas, remote.New(strings.TrimRight(arg, "/"), token))

		default:
			return nil, fmt.Errorf("unknown storage replica: %s", name)
		}
	}

	if len(replicas) == 0 {
		return nil, fmt.Errorf("no storage replicas configured")
	}
	return replicas, nil
}

func newS3Replica() (ports.Replica, error) {
	bucket := mustEnv("S3_BUCKET")
	cfg := aws.NewConfig()
	if region := os.Getenv("S3_REGION"); region != "" {
		cfg = cfg.WithRegion(region)
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return s3adapter.New(sess, bucket), nil
}

func newGDriveReplica() (ports.Replica, error) {
	ctx := context.Background()

	conf := &oauth2.Config{
		ClientID:     mustEnv("GDRIVE_CLIENT_ID"),
		ClientSecret: mustEnv("GDRIVE_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	tok := &oauth2.Token{RefreshToken: mustEnv("GDRIVE_REFRESH_TOKEN")}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, err
	}
	return gdrive.NewClient(srv, os.Getenv("GDRIVE_FOLDER_ID")), nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
