package main

import (
	"bitbucket.org/airenas/speechjobs/internal/app/transcription"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	transcription.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
                         __       _       __        
   _________  ___  ___  / /_     (_)___  / /_  _____
  / ___/ __ \/ _ \/ _ \/ __ \   / / __ \/ __ \/ ___/
 (__  ) /_/ /  __/  __/ / / /  / / /_/ / /_/ (__  ) 
/____/ .___/\___/\___/_/ /_/__/ /\____/_.___/____/  v: %s
    /_/                    /___/                    
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/speechjobs"))
}
