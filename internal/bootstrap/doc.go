/*
Package bootstrap assembles and runs the studio application.

Startup is a fixed sequence:

 1. Compose     base capabilities: shell, dialog, fs, process, os, http
 2. Gate        desktop builds add single-instance, then updater
 3. Setup       debug builds open devtools on the "main" window
 4. Build       preflight, initialize, create windows, run setup, open bridge
 5. Run         event loop until exit

Any error before the event loop is returned wrapped and is fatal for the
caller. A secondary desktop launch returns singleinstance.ErrSecondaryInstance
after relaying its arguments to the primary.
*/
package bootstrap
