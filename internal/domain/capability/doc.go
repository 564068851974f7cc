// Package capability provides the registry of capability plugins.
//
// Capabilities are kept in registration order. Order is part of the
// contract: the bootstrap composes a fixed sequence and renderers list
// capabilities in the same order. Registering an ID twice is a
// configuration error and is rejected with ErrDuplicateCapability.
//
// Commands are addressed as "<capability>.<command>", for example
// "fs.read_text_file" or "single-instance.status".
//
// Example Usage:
//
//	registry := capability.NewRegistry()
//	if err := registry.Register(fs.NewProvider(scope, logger)); err != nil {
//	    return err
//	}
//	result, err := registry.Execute(ctx, "fs.exists", params, nil)
package capability
