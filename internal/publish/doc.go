// Package publish uploads deployment artifacts to an object store.
//
// Every artifact of a run lands under one version folder:
//
//	[subdir/]version/relative/key
//
// Objects are public, cached for a year by clients and overwritten when
// they already exist. Nothing is read back and failed uploads are not
// retried.
//
// # Stores
//
// Two Store implementations are provided:
//
//   - S3Store uploads through the AWS SDK (aws-sdk-go-v2)
//   - MinioStore uploads to any S3-compatible endpoint through minio-go
//
// A Publisher without a Store accepts every call and uploads nothing, so
// a run can exercise assembly and minification offline.
package publish
