/*
Package secretbox encrypts and decrypts Secret payloads at rest using
AES-256-GCM with a nonce-prepended ciphertext layout, narrowed to
exactly the Secret kind's Data field.
*/
package secretbox
