// Package loader mounts features onto the Fiber router.
//
// A Feature names itself, reports whether it is enabled and registers its
// routes in Load. The Manager keeps features in registration order; LoadAll
// skips disabled ones and stops at the first Load error.
//
// research, academic and integrity are each built from their own service and
// only meet here, so each can be tested against a bare fiber.App.
package loader
