package main

import "github.com/couchcryptid/weather-location-service/cmd/locctl/cmd"

func main() {
	cmd.Execute()
}
