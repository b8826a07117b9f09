package main

import (
	"fmt"
	"os"
)

// runCompletion prints a shell completion script.
func runCompletion(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: certguard completion <bash|zsh|fish>")
		return 2
	}

	switch args[0] {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "unsupported shell: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Supported shells: bash, zsh, fish")
		return 2
	}
	return 0
}

const bashCompletion = `# certguard bash completion
_certguard_completions() {
    local cur prev commands
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    commands="algorithm check signers inspect truststore watch serve completion version"

    case "${prev}" in
        certguard)
            COMPREPLY=( $(compgen -W "${commands}" -- "${cur}") )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "text json sarif" -- "${cur}") )
            return 0
            ;;
        --variant)
            COMPREPLY=( $(compgen -W "generic code_signing tsa_server tls_server tls_client" -- "${cur}") )
            return 0
            ;;
        --trust)
            COMPREPLY=( $(compgen -W "default strict" -- "${cur}") )
            return 0
            ;;
        truststore)
            COMPREPLY=( $(compgen -W "add list remove" -- "${cur}") )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "--config --verbose --version --format --output --variant --trust --json --debounce --store --alias --anchor" -- "${cur}") )
        return 0
    fi

    COMPREPLY=( $(compgen -f -- "${cur}") )
}
complete -F _certguard_completions certguard
`

const zshCompletion = `#compdef certguard
# certguard zsh completion

_certguard() {
    local -a commands
    commands=(
        'algorithm:Decompose and classify algorithm names'
        'check:Verify certificate chains'
        'signers:Verify the signers of a signed archive'
        'inspect:Browse verification results interactively'
        'truststore:Manage trust anchors'
        'watch:Re-check chains when policy files change'
        'serve:Start MCP server on stdio'
        'completion:Generate shell completions'
        'version:Print version and exit'
    )

    _arguments -C \
        '--config[Config file]:file:_files' \
        '(-v --verbose)'{-v,--verbose}'[Debug logging]' \
        '--version[Print version]' \
        '1:command:->cmds' \
        '*::arg:->args'

    case "$state" in
        cmds)
            _describe 'command' commands
            ;;
        args)
            case "${words[1]}" in
                check|inspect|watch|signers)
                    _files
                    ;;
                truststore)
                    _values 'subcommand' add list remove
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_certguard "$@"
`

const fishCompletion = `# certguard fish completion
complete -c certguard -n '__fish_use_subcommand' -a 'algorithm' -d 'Decompose and classify algorithm names'
complete -c certguard -n '__fish_use_subcommand' -a 'check' -d 'Verify certificate chains'
complete -c certguard -n '__fish_use_subcommand' -a 'signers' -d 'Verify the signers of a signed archive'
complete -c certguard -n '__fish_use_subcommand' -a 'inspect' -d 'Browse verification results interactively'
complete -c certguard -n '__fish_use_subcommand' -a 'truststore' -d 'Manage trust anchors'
complete -c certguard -n '__fish_use_subcommand' -a 'watch' -d 'Re-check chains when policy files change'
complete -c certguard -n '__fish_use_subcommand' -a 'serve' -d 'Start MCP server on stdio'
complete -c certguard -n '__fish_use_subcommand' -a 'completion' -d 'Generate shell completions'
complete -c certguard -n '__fish_use_subcommand' -a 'version' -d 'Print version and exit'
complete -c certguard -l config -d 'Config file' -rF
complete -c certguard -s v -l verbose -d 'Debug logging'
complete -c certguard -l version -d 'Print version'
complete -c certguard -l format -d 'Output format' -a 'text json sarif'
complete -c certguard -l variant -d 'Validation variant' -a 'generic code_signing tsa_server tls_server tls_client'
complete -c certguard -l trust -d 'Trust policy' -a 'default strict'
complete -c certguard -n '__fish_seen_subcommand_from truststore' -a 'add list remove'
complete -c certguard -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'
`
