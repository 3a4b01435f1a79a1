package archive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"
)

// AzureArchive stores rendered reports in Azure Blob Storage.
type AzureArchive struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureArchive implements Archive
var _ Archive = (*AzureArchive)(nil)

// NewAzureArchive creates an archive client authenticated via managed
// identity and makes sure the container exists.
func NewAzureArchive(ctx context.Context, accountName, containerName string) (*AzureArchive, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure blob client: %w", err)
	}

	a := &AzureArchive{client: client, containerName: containerName}

	if _, err := client.CreateContainer(ctx, containerName, nil); err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return nil, fmt.Errorf("creating container %s: %w", containerName, err)
		}
		logrus.Debugf("Container %s already exists", containerName)
	}

	return a, nil
}

// Store uploads one report object, overwriting any previous version.
func (a *AzureArchive) Store(ctx context.Context, name string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.containerName, name, data, nil)
	if err != nil {
		return fmt.Errorf("uploading blob %s: %w", name, err)
	}
	logrus.Debugf("Archived %s (%d bytes)", name, len(data))
	return nil
}

// Retrieve downloads one report object.
func (a *AzureArchive) Retrieve(ctx context.Context, name string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.containerName, name, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading blob %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", name, err)
	}
	return data, nil
}

// List returns archived object names under a prefix, e.g. "weekly/<user>/".
func (a *AzureArchive) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	pager := a.client.NewListBlobsFlatPager(a.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing blobs under %s: %w", prefix, err)
		}
		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				names = append(names, *blob.Name)
			}
		}
	}
	return names, nil
}

// Delete removes an archived report. Only ever called on explicit user
// request, never by the pipeline itself.
func (a *AzureArchive) Delete(ctx context.Context, name string) error {
	if _, err := a.client.DeleteBlob(ctx, a.containerName, name, nil); err != nil {
		return fmt.Errorf("deleting blob %s: %w", name, err)
	}
	return nil
}
