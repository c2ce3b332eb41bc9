package mirror

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeClient struct {
	puts    map[string][]byte
	types   map[string]string
	deletes []string
	err     error
}

func newFakeClient() *fakeClient {
	return &fakeClient{puts: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3PutAndDelete(t *testing.T) {
	client := newFakeClient()
	m := NewS3(client, "studio-assets", "/site/")

	if err := m.Put(context.Background(), "/images/logos/a.jpg", "image/jpeg", []byte("jpeg")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := string(client.puts["studio-assets/site/images/logos/a.jpg"]); got != "jpeg" {
		t.Fatalf("stored %q, puts=%v", got, client.puts)
	}
	if client.types["site/images/logos/a.jpg"] != "image/jpeg" {
		t.Fatalf("content type lost")
	}

	if err := m.Delete(context.Background(), "/images/logos/a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(client.deletes) != 1 || client.deletes[0] != "studio-assets/site/images/logos/a.jpg" {
		t.Fatalf("deletes = %v", client.deletes)
	}
}

func TestS3KeyWithoutPrefix(t *testing.T) {
	m := NewS3(newFakeClient(), "b", "")
	if got := m.Key("/images/blog/x.jpg"); got != "images/blog/x.jpg" {
		t.Fatalf("Key = %q", got)
	}
}

func TestS3WrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	client := newFakeClient()
	client.err = boom
	m := NewS3(client, "b", "")
	if err := m.Put(context.Background(), "/x.jpg", "image/jpeg", nil); !errors.Is(err, boom) {
		t.Fatalf("Put error = %v", err)
	}
	if err := m.Delete(context.Background(), "/x.jpg"); !errors.Is(err, boom) {
		t.Fatalf("Delete error = %v", err)
	}
}

func TestNopMirror(t *testing.T) {
	var m Mirror = Nop{}
	if err := m.Put(context.Background(), "/a", "t", nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(context.Background(), "/a"); err != nil {
		t.Fatal(err)
	}
}
