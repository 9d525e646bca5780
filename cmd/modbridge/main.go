// Command modbridge scans a chi application into module records and
// serves them as MCP tools. The bundled demo application is the scan
// target; the scan, registry, bridge, and mcpserver packages are the
// embeddable pieces for real applications.
package main

func main() {
	Execute()
}
