package common

// AdminTokenHeaderName is the gRPC metadata key used to carry the admin
// token on privileged requests.
const AdminTokenHeaderName = "admin_token"

// SharedSecretParam is the query parameter carrying the shared secret on
// privileged HTTP gateway routes.
const SharedSecretParam = "token"
