package main

import "ncs-birthday-mailer/cmd"

func main() {
	cmd.Execute()
}
