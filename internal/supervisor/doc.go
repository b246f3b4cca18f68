// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

/*
Package supervisor provides process supervision for the funnelcast server
using suture v4.

The tree isolates housekeeping from request serving:

	RootSupervisor ("funnelcast")
	├── DataSupervisor ("data-layer")
	│   ├── admission-history-pruner
	│   └── cache-janitor (memory, lfu and badger stores)
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services are restarted with suture's backoff. Context cancellation
stops every layer; services still running after ShutdownTimeout show up in
UnstoppedServiceReport.

Supervisor events are logged through slog, which main bridges to zerolog:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewHistoryPrunerService(controller, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
